// Package tracing records how long each phase of a request takes.
//
// A Trace belongs to one request and is safe for concurrent use, so agents
// running in parallel can open spans on the same trace. A nil *Trace is a
// valid no-op tracer.
package tracing

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Record is a finished span.
type Record struct {
	Name     string
	Start    time.Time
	Duration time.Duration
	Attrs    map[string]any
	Err      string
}

// Trace collects the spans of one request.
type Trace struct {
	id string

	mu      sync.Mutex
	records []Record
}

// New creates a trace for the request identified by id.
func New(id string) *Trace {
	return &Trace{id: id}
}

// ID returns the request trace id.
func (t *Trace) ID() string {
	if t == nil {
		return ""
	}
	return t.id
}

// Span is an open phase. End must be called exactly once.
type Span struct {
	trace *Trace
	name  string
	start time.Time

	mu    sync.Mutex
	attrs map[string]any
	err   error
	done  bool
}

// Start opens a span named name.
func (t *Trace) Start(name string) *Span {
	return &Span{trace: t, name: name, start: time.Now()}
}

// SetAttr attaches a key/value pair to the span.
func (s *Span) SetAttr(key string, value any) {
	if s == nil || s.trace == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attrs == nil {
		s.attrs = make(map[string]any)
	}
	s.attrs[key] = value
}

// RecordError marks the span as failed. A nil error is ignored.
func (s *Span) RecordError(err error) {
	if s == nil || s.trace == nil || err == nil {
		return
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// End closes the span and files it on the trace. Later calls do nothing.
func (s *Span) End() {
	if s == nil || s.trace == nil {
		return
	}
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	rec := Record{Name: s.name, Start: s.start, Duration: time.Since(s.start), Attrs: s.attrs}
	if s.err != nil {
		rec.Err = s.err.Error()
	}
	s.mu.Unlock()

	t := s.trace
	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()

	slog.Debug("span completed",
		"trace_id", t.id,
		"name", rec.Name,
		"duration_ms", rec.Duration.Milliseconds(),
		"error", rec.Err,
	)
}

// Records returns the finished spans ordered by start time.
func (t *Trace) Records() []Record {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	t.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Timings sums span durations per name, in milliseconds.
func (t *Trace) Timings() map[string]int64 {
	recs := t.Records()
	if len(recs) == 0 {
		return nil
	}
	out := make(map[string]int64, len(recs))
	for _, r := range recs {
		out[r.Name] += r.Duration.Milliseconds()
	}
	return out
}

type traceKey struct{}

// WithTrace stores t in ctx.
func WithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// FromContext returns the trace stored in ctx, or nil.
func FromContext(ctx context.Context) *Trace {
	t, _ := ctx.Value(traceKey{}).(*Trace)
	return t
}

// StartSpan opens a span on the trace carried by ctx.
func StartSpan(ctx context.Context, name string) *Span {
	return FromContext(ctx).Start(name)
}

// WithSpan runs fn inside a span and records its error.
func WithSpan(ctx context.Context, name string, fn func(context.Context) error) error {
	span := StartSpan(ctx, name)
	defer span.End()

	err := fn(ctx)
	span.RecordError(err)
	return err
}
