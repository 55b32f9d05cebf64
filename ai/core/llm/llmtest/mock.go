// Package llmtest provides a scriptable llm.Service for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/stats"
)

// Rule answers when every message joined together contains Match.
type Rule struct {
	Match    string
	Response string
	Err      error
}

// MockLLM is a configurable mock LLM service.
// Rules are checked in order; the first match wins.
type MockLLM struct {
	mu              sync.Mutex
	rules           []Rule
	defaultResponse string
	defaultErr      error
	handler         func(ctx context.Context, msgs []llm.Message) (string, error)
	callStats       llm.LLMCallStats
	calls           [][]llm.Message
}

var _ llm.Service = (*MockLLM)(nil)

// NewMockLLM creates a mock that answers "Mock response" by default.
func NewMockLLM() *MockLLM {
	return &MockLLM{
		defaultResponse: "Mock response",
		callStats:       llm.LLMCallStats{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}
}

// On adds a response for prompts containing match.
func (m *MockLLM) On(match, response string) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, Rule{Match: match, Response: response})
	return m
}

// OnError fails prompts containing match.
func (m *MockLLM) OnError(match string, err error) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, Rule{Match: match, Err: err})
	return m
}

// WithDefaultResponse sets the default response when no rule matches.
func (m *MockLLM) WithDefaultResponse(output string) *MockLLM {
	m.defaultResponse = output
	return m
}

// WithDefaultError makes unmatched calls fail.
func (m *MockLLM) WithDefaultError(err error) *MockLLM {
	m.defaultErr = err
	return m
}

// WithHandler replaces the rule table with a function.
func (m *MockLLM) WithHandler(h func(ctx context.Context, msgs []llm.Message) (string, error)) *MockLLM {
	m.handler = h
	return m
}

// WithCallStats sets the usage reported per call.
func (m *MockLLM) WithCallStats(in, out int) *MockLLM {
	m.callStats = llm.LLMCallStats{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}
	return m
}

// Chat implements llm.Service. Usage is recorded on the ctx accumulator like the real service.
func (m *MockLLM) Chat(ctx context.Context, msgs []llm.Message, _ ...llm.CallOption) (string, *llm.LLMCallStats, error) {
	m.mu.Lock()
	m.calls = append(m.calls, msgs)
	rules := append([]Rule(nil), m.rules...)
	handler := m.handler
	callStats := m.callStats
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	content, err := m.answer(ctx, msgs, rules, handler)
	if err != nil {
		return "", nil, err
	}
	stats.Record(ctx, callStats.PromptTokens, callStats.CompletionTokens)
	return content, &callStats, nil
}

func (m *MockLLM) answer(ctx context.Context, msgs []llm.Message, rules []Rule, handler func(context.Context, []llm.Message) (string, error)) (string, error) {
	if handler != nil {
		return handler(ctx, msgs)
	}
	joined := Join(msgs)
	for _, r := range rules {
		if strings.Contains(joined, r.Match) {
			return r.Response, r.Err
		}
	}
	return m.defaultResponse, m.defaultErr
}

// Warmup is a no-op for the mock.
func (m *MockLLM) Warmup(context.Context) {}

// Calls returns every prompt received so far.
func (m *MockLLM) Calls() [][]llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]llm.Message(nil), m.calls...)
}

// CallCount returns the number of Chat calls.
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Join concatenates message contents, for matching.
func Join(msgs []llm.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n")
}
