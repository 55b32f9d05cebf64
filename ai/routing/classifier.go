// Package routing decides which agents handle a request: a prefix override,
// a file-type seed, an LLM classification and a deterministic keyword
// fallback, followed by mutual exclusion and a non-empty guarantee.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/agents/registry"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/internal/strutil"
	"github.com/hrygo/agenthub/ai/memory"
)

// Source names the step that produced a routing decision.
type Source string

const (
	SourcePrefix   Source = "prefix"
	SourceLLM      Source = "llm"
	SourceCache    Source = "cache"
	SourceKeyword  Source = "keyword"
	SourceSticky   Source = "sticky"
	SourceOverride Source = "override"
)

var (
	// ErrNoLLM is returned when semantic classification has no model to ask.
	ErrNoLLM = errors.New("routing: no LLM configured")

	// ErrMalformedOutput is returned when the model reply is not a JSON array of agent names.
	ErrMalformedOutput = errors.New("routing: malformed classifier output")
)

// Input is what the classifier looks at.
type Input struct {
	Query    string
	FilePath string

	// History is the recent conversation, oldest first.
	History []memory.Turn
}

// Result is an ordered, duplicate-free agent selection.
type Result struct {
	Agents []string `json:"agents"`
	Source Source   `json:"source"`
}

// CapabilitySource lists the agents offered to the model.
type CapabilitySource interface {
	Describe() []registry.Capability
}

// Config configures a Classifier.
type Config struct {
	// HistoryTurns is how many recent turns the model sees (default 3).
	HistoryTurns int

	// Timeout bounds the classification call (default 20s).
	Timeout time.Duration

	// EnableCache caches model decisions keyed by query, file hint and history window.
	EnableCache bool
	Cache       CacheConfig
}

// DefaultConfig returns the settings used by the server.
func DefaultConfig() Config {
	return Config{
		HistoryTurns: 3,
		Timeout:      20 * time.Second,
		EnableCache:  true,
	}
}

// Classifier runs the prefix, file-seed and semantic steps.
// KeywordFallback and Finalize are applied by the caller.
type Classifier struct {
	llm          llm.Service
	capabilities CapabilitySource
	cache        *Cache
	historyTurns int
	timeout      time.Duration
}

// NewClassifier creates a classifier. llmService may be nil, in which case
// every non-prefix request returns ErrNoLLM.
func NewClassifier(llmService llm.Service, capabilities CapabilitySource, cfg Config) *Classifier {
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	c := &Classifier{
		llm:          llmService,
		capabilities: capabilities,
		historyTurns: cfg.HistoryTurns,
		timeout:      cfg.Timeout,
	}
	if cfg.EnableCache {
		c.cache = NewCache(cfg.Cache)
	}
	return c
}

// Classify returns the agents selected by the prefix override, or by the
// file seed merged with the model's choice. On error the caller falls back
// to KeywordFallback.
func (c *Classifier) Classify(ctx context.Context, in Input) (Result, error) {
	start := time.Now()

	if HasRAGPrefix(in.Query) {
		return Result{Agents: []string{agents.RAG}, Source: SourcePrefix}, nil
	}

	if c.llm == nil {
		return Result{}, ErrNoLLM
	}

	seed := FileSeed(in.FilePath)
	window := tail(in.History, c.historyTurns)

	var key string
	if c.cache != nil {
		key = CacheKey(in.Query, fileHint(in.FilePath), window)
		if cached, ok := c.cache.Get(key); ok {
			return Result{Agents: dedupe(append(seed, cached...)), Source: SourceCache}, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := buildPrompt(c.describe(), window, in)
	reply, _, err := c.llm.Chat(ctx, msgs, llm.WithTemperature(0), llm.WithMaxTokens(100))
	if err != nil {
		return Result{}, fmt.Errorf("semantic classification: %w", err)
	}

	selected, err := parseAgentList(reply)
	if err != nil {
		slog.Debug("routing: unparseable classifier reply", "reply", strutil.Truncate(reply, 200))
		return Result{}, err
	}

	if c.cache != nil {
		c.cache.Set(key, selected)
	}

	slog.Debug("routing: classified by llm",
		"query", strutil.Truncate(in.Query, 50),
		"agents", selected,
		"latency_ms", time.Since(start).Milliseconds())

	return Result{Agents: dedupe(append(seed, selected...)), Source: SourceLLM}, nil
}

// CacheStats exposes the decision cache counters; zero when caching is off.
func (c *Classifier) CacheStats() Stats {
	if c.cache == nil {
		return Stats{}
	}
	return c.cache.GetStats()
}

func (c *Classifier) describe() []registry.Capability {
	if c.capabilities == nil {
		return nil
	}
	return c.capabilities.Describe()
}

func tail(turns []memory.Turn, n int) []memory.Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}
