// Package orchestrator turns one user message into one answer.
//
// For every request it:
//
//	lock session → read memory → pick agents (sticky / override / classify)
//	    → fan out concurrently → merge → append turns → evaluate
//
// Agent failures are isolated: a failing agent contributes an inline
// warning and its siblings still answer. Evaluation is best-effort and
// never fails a request.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/evaluation"
	"github.com/hrygo/agenthub/ai/memory"
	"github.com/hrygo/agenthub/ai/memory/simple"
	"github.com/hrygo/agenthub/ai/metrics"
	"github.com/hrygo/agenthub/ai/observability/logging"
	"github.com/hrygo/agenthub/ai/observability/tracing"
	"github.com/hrygo/agenthub/ai/routing"
	"github.com/hrygo/agenthub/ai/session"
	"github.com/hrygo/agenthub/ai/stats"
)

// Orchestrator coordinates classification, dispatch, merging and memory.
type Orchestrator struct {
	classifier Classifier
	executor   *executor
	memory     memory.Store
	locker     session.Locker
	evaluator  Evaluator
	recorder   metrics.Recorder
	costGuard  *stats.CostGuard
	config     Config
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.config = cfg.withDefaults() }
}

// WithMemory sets the conversation store. Defaults to an in-process store.
func WithMemory(store memory.Store) Option {
	return func(o *Orchestrator) {
		if store != nil {
			o.memory = store
		}
	}
}

// WithLocker sets the per-session lock. Defaults to an in-process lock.
func WithLocker(l session.Locker) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.locker = l
		}
	}
}

// WithEvaluator enables post-answer evaluation.
func WithEvaluator(e Evaluator) Option {
	return func(o *Orchestrator) { o.evaluator = e }
}

// WithRecorder sends request metrics to Prometheus.
func WithRecorder(rec metrics.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = rec }
}

// WithCostGuard flags requests whose estimated cost crosses a threshold.
func WithCostGuard(g *stats.CostGuard) Option {
	return func(o *Orchestrator) { o.costGuard = g }
}

// New creates an orchestrator dispatching through dispatcher.
// A nil classifier routes with keyword rules only.
func New(dispatcher Dispatcher, classifier Classifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		memory:     simple.NewStore(0),
		locker:     session.NewLocalLocker(session.DefaultLockConfig()),
		config:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.executor = &executor{dispatcher: dispatcher, maxParallel: o.config.MaxParallel}
	return o
}

// Memory returns the conversation store.
func (o *Orchestrator) Memory() memory.Store {
	return o.memory
}

// Locker returns the per-session lock. Callers that reach agents without
// going through Process take it to stay serialised with chat turns.
func (o *Orchestrator) Locker() session.Locker {
	return o.locker
}

// Process handles one user message end to end.
// Requests of the same session are serialised.
func (o *Orchestrator) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return nil, ErrEmptyMessage
	}
	req.Agent = strings.ToLower(strings.TrimSpace(req.Agent))
	if req.Agent != "" && !agents.IsKnown(req.Agent) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, req.Agent)
	}
	if req.SessionID == "" {
		req.SessionID = DefaultSessionID
	}
	if req.TraceID == "" {
		req.TraceID = NewTraceID()
	}

	ctx = logging.WithFields(ctx, "trace_id", req.TraceID, "session_id", req.SessionID)
	logger := logging.FromContext(ctx)
	trace := tracing.New(req.TraceID)
	ctx = tracing.WithTrace(ctx, trace)

	result, err := o.process(ctx, req)
	latency := time.Since(start)
	if o.recorder != nil {
		o.recorder.RecordRequest(latency, err == nil)
	}
	if err != nil {
		logger.Error("orchestrator: request failed", "error", err, "duration_ms", latency.Milliseconds())
		return nil, err
	}

	result.Duration = latency
	result.Timings = trace.Timings()
	logger.Info("orchestrator: request completed",
		"agents", result.Agents,
		"source", result.Source,
		"total_tokens", result.Usage.TotalTokens,
		"duration_ms", latency.Milliseconds())
	return result, nil
}

func (o *Orchestrator) process(ctx context.Context, req Request) (*Result, error) {
	logger := logging.FromContext(ctx)

	lockSpan := tracing.StartSpan(ctx, "lock")
	unlock, err := o.locker.Lock(ctx, req.SessionID)
	lockSpan.RecordError(err)
	lockSpan.End()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	defer unlock()

	acc := stats.NewAccumulator(o.config.Rates)
	acc.Reset()
	ctx = stats.WithAccumulator(ctx, acc)

	var history []memory.Turn
	err = tracing.WithSpan(ctx, "memory.read", func(ctx context.Context) error {
		turns, err := o.memory.Recent(ctx, req.SessionID, o.config.HistoryMessages)
		history = turns
		return err
	})
	if err != nil {
		logger.Warn("orchestrator: memory read failed, continuing without history", "error", err)
		history = nil
	}

	routeSpan := tracing.StartSpan(ctx, "route")
	route := o.route(ctx, req, history)
	route.Agents = o.registered(route.Agents)
	routeSpan.SetAttr("source", string(route.Source))
	routeSpan.End()
	if o.recorder != nil {
		o.recorder.RecordClassifierDecision(string(route.Source))
	}
	logger.Info("orchestrator: routed", "agents", route.Agents, "source", route.Source)

	dispatchSpan := tracing.StartSpan(ctx, "dispatch")
	outcomes := o.executor.run(ctx, route.Agents, agents.Request{
		Query:     req.Message,
		FilePath:  req.FilePath,
		History:   SummarizeHistory(history, o.config.HistoryMessages, o.config.HistoryChars),
		SessionID: req.SessionID,
	})
	dispatchSpan.End()
	response := Merge(outcomes)

	userTurn := memory.NewTurn(memory.RoleUser, req.Message)
	assistantTurn := memory.NewTurn(memory.RoleAssistant, response)
	assistantTurn.Agents = append([]string(nil), route.Agents...)
	assistantTurn.HeldBy = holders(outcomes)
	assistantTurn.HoldSession = len(assistantTurn.HeldBy) > 0
	if err := tracing.WithSpan(ctx, "memory.append", func(ctx context.Context) error {
		return o.memory.Append(ctx, req.SessionID, userTurn, assistantTurn)
	}); err != nil {
		logger.Warn("orchestrator: memory append failed", "error", err)
	}
	unlock()

	result := &Result{
		Response: response,
		Agents:   route.Agents,
		Source:   route.Source,
		TraceID:  req.TraceID,
	}
	if o.evaluator != nil {
		evalSpan := tracing.StartSpan(ctx, "evaluate")
		result.Evaluation = o.evaluator.Run(ctx, evaluation.Input{Query: req.Message, Response: response})
		evalSpan.End()
	}

	result.Usage = acc.Totals()
	if o.recorder != nil {
		o.recorder.RecordLLMTokens("input", result.Usage.InputTokens)
		o.recorder.RecordLLMTokens("output", result.Usage.OutputTokens)
	}
	o.costGuard.Check(req.SessionID, req.TraceID, result.Usage)
	return result, nil
}

// registered swaps names the dispatcher has no agent for with the agent it
// would run instead, so headers and the reported agent list name what ran.
func (o *Orchestrator) registered(names []string) []string {
	res, ok := o.executor.dispatcher.(Resolver)
	if !ok {
		return names
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if a := res.Resolve(name); a != nil {
			name = a.Name()
		}
		out = append(out, name)
	}
	return routing.Finalize(out)
}

// route picks the agents for a turn. A held session wins over an explicit
// agent, which wins over classification.
func (o *Orchestrator) route(ctx context.Context, req Request, history []memory.Turn) routing.Result {
	if last, ok := memory.LastAssistant(history); ok && last.HoldSession {
		held := last.HeldBy
		if len(held) == 0 {
			// Turns written before HeldBy was recorded.
			held = last.Agents
		}
		if len(held) > 0 {
			return routing.Result{Agents: routing.Finalize(held), Source: routing.SourceSticky}
		}
	}
	if req.Agent != "" {
		return routing.Result{Agents: []string{req.Agent}, Source: routing.SourceOverride}
	}

	in := routing.Input{Query: req.Message, FilePath: req.FilePath, History: history}
	if o.classifier == nil {
		res := routing.KeywordFallback(in)
		res.Agents = routing.Finalize(res.Agents)
		return res
	}

	res, err := o.classifier.Classify(ctx, in)
	if err != nil {
		logging.FromContext(ctx).Warn("orchestrator: classifier failed, using keyword rules", "error", err)
		res = routing.KeywordFallback(in)
	}
	res.Agents = routing.Finalize(res.Agents)
	return res
}
