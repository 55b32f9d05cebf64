package registry

import (
	"sync"
	"time"
)

// Stats collects per-agent invocation counters for the health endpoint.
type Stats struct {
	mu     sync.RWMutex
	agents map[string]*AgentStats
}

// AgentStats holds counters for a single agent.
type AgentStats struct {
	Invocations    int64     `json:"invocations"`
	Errors         int64     `json:"errors"`
	TotalLatencyMs int64     `json:"total_latency_ms"`
	LastInvocation time.Time `json:"last_invocation"`
}

// AverageLatencyMs returns the mean latency in milliseconds.
func (s AgentStats) AverageLatencyMs() float64 {
	if s.Invocations == 0 {
		return 0
	}
	return float64(s.TotalLatencyMs) / float64(s.Invocations)
}

// ErrorRate returns the error rate as a percentage.
func (s AgentStats) ErrorRate() float64 {
	if s.Invocations == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.Invocations) * 100
}

func NewStats() *Stats {
	return &Stats{agents: make(map[string]*AgentStats)}
}

// Record records one invocation.
func (s *Stats) Record(agent string, latency time.Duration, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.agents[agent]
	if !ok {
		st = &AgentStats{}
		s.agents[agent] = st
	}
	st.Invocations++
	st.TotalLatencyMs += latency.Milliseconds()
	st.LastInvocation = time.Now()
	if !success {
		st.Errors++
	}
}

// Get returns a copy of the counters for one agent.
func (s *Stats) Get(agent string) AgentStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.agents[agent]; ok {
		return *st
	}
	return AgentStats{}
}

// Snapshot returns a copy of all counters.
func (s *Stats) Snapshot() map[string]AgentStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]AgentStats, len(s.agents))
	for name, st := range s.agents {
		result[name] = *st
	}
	return result
}

// Reset clears all counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = make(map[string]*AgentStats)
}
