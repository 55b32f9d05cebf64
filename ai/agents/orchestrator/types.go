package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/agents/registry"
	"github.com/hrygo/agenthub/ai/evaluation"
	"github.com/hrygo/agenthub/ai/routing"
	"github.com/hrygo/agenthub/ai/stats"
)

var (
	// ErrEmptyMessage is returned for a request without text.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrUnknownAgent is returned when a request names an agent outside the vocabulary.
	ErrUnknownAgent = errors.New("unknown agent")
)

// DefaultSessionID is used when a request carries no session id.
const DefaultSessionID = "default"

// Request is one user turn.
type Request struct {
	Message   string
	SessionID string
	FilePath  string

	// Agent, when set, bypasses classification.
	Agent string

	// TraceID is generated when empty.
	TraceID string
}

// Result is the outcome of one request.
type Result struct {
	Response   string                `json:"response"`
	Agents     []string              `json:"agents_called"`
	Source     routing.Source        `json:"routing_source"`
	Usage      stats.Totals          `json:"usage"`
	Evaluation *evaluation.Scorecard `json:"evaluation,omitempty"`
	TraceID    string                `json:"trace_id"`
	Duration   time.Duration         `json:"-"`

	// Timings holds per-phase durations in milliseconds (lock, route, dispatch, agent.NAME, ...).
	Timings map[string]int64 `json:"timings_ms,omitempty"`
}

// Primary returns the first dispatched agent, or the fallback when none ran.
func (r *Result) Primary() string {
	if r == nil || len(r.Agents) == 0 {
		return agents.Fallback
	}
	return r.Agents[0]
}

// Classifier selects agents for a turn.
type Classifier interface {
	Classify(ctx context.Context, in routing.Input) (routing.Result, error)
}

// Dispatcher runs one named agent.
type Dispatcher interface {
	Invoke(ctx context.Context, name string, req *agents.Request) (*agents.Response, error)
}

// Resolver is implemented by dispatchers that substitute a fallback agent
// for names nothing is registered under.
type Resolver interface {
	Resolve(name string) agents.Agent
}

// Evaluator grades a final answer. It must not fail the request.
type Evaluator interface {
	Run(ctx context.Context, in evaluation.Input) *evaluation.Scorecard
}

var (
	_ Classifier = (*routing.Classifier)(nil)
	_ Dispatcher = (*registry.Registry)(nil)
	_ Resolver   = (*registry.Registry)(nil)
	_ Evaluator  = (*evaluation.Runner)(nil)
)

// Config tunes the orchestrator.
type Config struct {
	// HistoryMessages is how many stored turns are read per request.
	HistoryMessages int
	// HistoryChars truncates each turn in the history summary.
	HistoryChars int
	// MaxParallel bounds concurrent agent calls; zero means one goroutine per agent.
	MaxParallel int
	// Rates prices the per-request token usage.
	Rates stats.Rates
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		HistoryMessages: 20,
		HistoryChars:    400,
		Rates:           stats.DefaultRates(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.HistoryMessages <= 0 {
		c.HistoryMessages = def.HistoryMessages
	}
	if c.HistoryChars <= 0 {
		c.HistoryChars = def.HistoryChars
	}
	if c.MaxParallel < 0 {
		c.MaxParallel = 0
	}
	return c
}

// NewTraceID returns a fresh request trace id.
func NewTraceID() string {
	return uuid.NewString()
}
