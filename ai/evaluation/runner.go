package evaluation

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/hrygo/agenthub/ai/metrics"
)

// DefaultTimeout bounds one evaluation.
const DefaultTimeout = 30 * time.Second

// Evaluator grades a single answer.
type Evaluator interface {
	Evaluate(ctx context.Context, in Input) (*Scorecard, error)
}

var _ Evaluator = (*Judge)(nil)

// Runner runs an Evaluator with its own timeout and failure boundary.
type Runner struct {
	evaluator Evaluator
	timeout   time.Duration
	recorder  metrics.Recorder
}

// NewRunner wraps evaluator. A non-positive timeout uses DefaultTimeout.
func NewRunner(evaluator Evaluator, timeout time.Duration, recorder metrics.Recorder) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{evaluator: evaluator, timeout: timeout, recorder: recorder}
}

// Run grades in. Errors, timeouts and panics are logged and yield nil.
func (r *Runner) Run(ctx context.Context, in Input) (sc *Scorecard) {
	if r == nil || r.evaluator == nil || in.Response == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			slog.Error("evaluation: evaluator panicked", "panic", p, "stack", string(debug.Stack()))
			sc = nil
		}
	}()

	sc, err := r.evaluator.Evaluate(ctx, in)
	if err != nil {
		slog.Warn("evaluation: skipped", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil
	}

	slog.Info("evaluation: complete",
		"overall", sc.Overall,
		"verdict", sc.Verdict,
		"duration_ms", time.Since(start).Milliseconds())
	if r.recorder != nil {
		r.recorder.RecordEvaluation(sc.Overall)
	}
	return sc
}
