// Package registry maps agent names to implementations and wraps every
// invocation with the per-agent timeout and bookkeeping.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/metrics"
)

// DefaultTimeout is the per-agent call timeout.
const DefaultTimeout = 90 * time.Second

// Capability is an agent as described to the classifier.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry holds the agents the hub can dispatch to.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]agents.Agent
	order  []string

	timeout  time.Duration
	recorder metrics.Recorder
	stats    *Stats
}

// Option configures a Registry.
type Option func(*Registry)

// WithTimeout sets the per-agent call timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRecorder sends invocation metrics to Prometheus.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		agents:  make(map[string]agents.Agent),
		timeout: DefaultTimeout,
		stats:   NewStats(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds an agent. Names outside the vocabulary and duplicates are rejected.
func (r *Registry) Register(a agents.Agent) error {
	name := a.Name()
	if !agents.IsKnown(name) {
		return fmt.Errorf("agent %q is not in the vocabulary", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[name]; exists {
		return fmt.Errorf("agent %q already registered", name)
	}
	r.agents[name] = a
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register for wiring code; it panics on error.
func (r *Registry) MustRegister(list ...agents.Agent) {
	for _, a := range list {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
}

// Get returns the agent registered under name.
func (r *Registry) Get(name string) (agents.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

// Resolve returns the named agent, or the fallback agent for unknown names.
// It returns nil only when neither is registered.
func (r *Registry) Resolve(name string) agents.Agent {
	if a, ok := r.Get(name); ok {
		return a
	}
	a, _ := r.Get(agents.Fallback)
	return a
}

// Names returns registered agent names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Describe lists the registered agents for the classifier prompt.
func (r *Registry) Describe() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]Capability, 0, len(r.order))
	for _, name := range r.order {
		caps = append(caps, Capability{Name: name, Description: r.agents[name].Description()})
	}
	return caps
}

// Stats exposes the invocation counters.
func (r *Registry) Stats() *Stats {
	return r.stats
}

// Invoke runs the named agent (or the fallback) under the per-agent timeout.
// Panics inside an agent are converted to errors.
func (r *Registry) Invoke(ctx context.Context, name string, req *agents.Request) (resp *agents.Response, err error) {
	a := r.Resolve(name)
	if a == nil {
		return nil, fmt.Errorf("no agent registered for %q", name)
	}
	agentName := a.Name()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			slog.Error("registry: agent panicked", "agent", agentName, "panic", p, "stack", string(debug.Stack()))
			resp, err = nil, fmt.Errorf("agent %s panicked: %v", agentName, p)
		}
		latency := time.Since(start)
		r.stats.Record(agentName, latency, err == nil)
		if r.recorder != nil {
			r.recorder.RecordAgentInvocation(agentName, latency, err == nil)
		}
	}()

	resp, err = a.Invoke(ctx, req)
	if err == nil && resp == nil {
		resp = agents.Text("")
	}
	return resp, err
}
