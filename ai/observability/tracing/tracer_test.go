package tracing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrace_Spans(t *testing.T) {
	tr := New("trace-1")
	assert.Equal(t, "trace-1", tr.ID())

	route := tr.Start("route")
	route.SetAttr("source", "keyword")
	time.Sleep(2 * time.Millisecond)
	route.End()

	dispatch := tr.Start("dispatch")
	dispatch.RecordError(errors.New("boom"))
	dispatch.End()
	dispatch.End()

	recs := tr.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "route", recs[0].Name)
	assert.Equal(t, "keyword", recs[0].Attrs["source"])
	assert.GreaterOrEqual(t, recs[0].Duration, 2*time.Millisecond)
	assert.Empty(t, recs[0].Err)
	assert.Equal(t, "dispatch", recs[1].Name)
	assert.Equal(t, "boom", recs[1].Err)

	timings := tr.Timings()
	assert.Contains(t, timings, "route")
	assert.Contains(t, timings, "dispatch")
}

func TestTrace_Nil(t *testing.T) {
	var tr *Trace
	span := tr.Start("route")
	span.SetAttr("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()

	assert.Empty(t, tr.ID())
	assert.Nil(t, tr.Records())
	assert.Nil(t, tr.Timings())
}

func TestTrace_ConcurrentSpans(t *testing.T) {
	tr := New("trace-2")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			span := tr.Start(fmt.Sprintf("agent.%d", i%4))
			span.SetAttr("i", i)
			span.End()
		}(i)
	}
	wg.Wait()

	assert.Len(t, tr.Records(), 20)
	assert.Len(t, tr.Timings(), 4)
}

func TestWithSpan(t *testing.T) {
	tr := New("trace-3")
	ctx := WithTrace(context.Background(), tr)
	assert.Same(t, tr, FromContext(ctx))

	err := WithSpan(ctx, "memory.read", func(context.Context) error { return errors.New("redis down") })
	assert.EqualError(t, err, "redis down")
	require.NoError(t, WithSpan(ctx, "memory.append", func(context.Context) error { return nil }))

	recs := tr.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "redis down", recs[0].Err)

	// Without a trace in context spans are no-ops.
	require.NoError(t, WithSpan(context.Background(), "x", func(context.Context) error { return nil }))
	assert.Nil(t, FromContext(context.Background()))
}
