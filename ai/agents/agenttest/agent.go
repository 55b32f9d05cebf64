// Package agenttest provides agent doubles for tests.
package agenttest

import (
	"context"
	"sync"

	"github.com/hrygo/agenthub/ai/agents"
)

// Agent is a test double whose behaviour is a function.
type Agent struct {
	AgentName string
	Desc      string
	Fn        func(ctx context.Context, req *agents.Request) (*agents.Response, error)

	mu    sync.Mutex
	calls []*agents.Request
}

var _ agents.Agent = (*Agent)(nil)

// Static returns an agent that always answers content.
func Static(name, content string) *Agent {
	return &Agent{
		AgentName: name,
		Fn: func(context.Context, *agents.Request) (*agents.Response, error) {
			return agents.Text(content), nil
		},
	}
}

// Failing returns an agent that always fails with err.
func Failing(name string, err error) *Agent {
	return &Agent{
		AgentName: name,
		Fn: func(context.Context, *agents.Request) (*agents.Response, error) {
			return nil, err
		},
	}
}

func (a *Agent) Name() string { return a.AgentName }

func (a *Agent) Description() string {
	if a.Desc != "" {
		return a.Desc
	}
	return "test agent " + a.AgentName
}

func (a *Agent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	a.mu.Lock()
	cp := *req
	a.calls = append(a.calls, &cp)
	a.mu.Unlock()
	return a.Fn(ctx, req)
}

// Calls returns copies of the received requests.
func (a *Agent) Calls() []*agents.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*agents.Request(nil), a.calls...)
}
