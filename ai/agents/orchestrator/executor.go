package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/observability/tracing"
)

// executor fans one request out to several agents.
type executor struct {
	dispatcher  Dispatcher
	maxParallel int
}

// run invokes every agent concurrently and returns one outcome per agent,
// in the order of names. A failing agent becomes an inline warning; it never
// aborts its siblings.
func (e *executor) run(ctx context.Context, names []string, req agents.Request) []Outcome {
	outcomes := make([]Outcome, len(names))

	var sem chan struct{}
	if e.maxParallel > 0 && e.maxParallel < len(names) {
		sem = make(chan struct{}, e.maxParallel)
	}

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()

			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					outcomes[idx] = failed(name, ctx.Err())
					slog.Warn("executor: agent cancelled before dispatch", "agent", name)
					return
				}
			}
			outcomes[idx] = e.invoke(ctx, name, req)
		}(i, name)
	}
	wg.Wait()

	return outcomes
}

func (e *executor) invoke(ctx context.Context, name string, req agents.Request) Outcome {
	start := time.Now()
	span := tracing.StartSpan(ctx, "agent."+name)
	defer span.End()

	// Each agent gets its own copy of the request.
	resp, err := e.dispatcher.Invoke(ctx, name, &req)
	if err != nil {
		span.RecordError(err)
		slog.Error("executor: agent failed",
			"agent", name,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return failed(name, err)
	}
	if resp == nil {
		resp = agents.Text("")
	}

	slog.Debug("executor: agent completed",
		"agent", name,
		"response_length", len(resp.Content),
		"hold_session", resp.HoldSession,
		"duration_ms", time.Since(start).Milliseconds())
	return Outcome{Agent: name, Content: resp.Content, HoldSession: resp.HoldSession}
}

func failed(name string, err error) Outcome {
	return Outcome{
		Agent:   name,
		Content: fmt.Sprintf("⚠ %s agent error: %v", name, err),
		Err:     err,
	}
}
