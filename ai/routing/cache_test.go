package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/agenthub/ai/memory"
)

func TestCache_BasicOperations(t *testing.T) {
	c := NewCache(CacheConfig{Capacity: 10})

	c.Set("k1", []string{"sql", "viz"})
	got, found := c.Get("k1")
	require.True(t, found)
	assert.Equal(t, []string{"sql", "viz"}, got)

	// Returned slices are copies.
	got[0] = "general"
	again, _ := c.Get("k1")
	assert.Equal(t, "sql", again[0])

	_, found = c.Get("missing")
	assert.False(t, found)

	stats := c.GetStats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 10, stats.Capacity)

	c.Clear()
	stats = c.GetStats()
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Size)
}

func TestCacheKey(t *testing.T) {
	window := []memory.Turn{
		{Role: memory.RoleUser, Content: "weather in Paris"},
		{Role: memory.RoleAssistant, Content: "Sunny", Agents: []string{"weather"}},
	}

	base := CacheKey("And tomorrow?", "", window)
	assert.Equal(t, base, CacheKey("  and TOMORROW? ", "", window), "query is normalized")
	assert.Contains(t, base, "route:")

	assert.NotEqual(t, base, CacheKey("And tomorrow?", "", nil), "history is part of the key")
	assert.NotEqual(t, base, CacheKey("And tomorrow?", "a.png (image)", window), "file hint is part of the key")

	other := []memory.Turn{window[0], {Role: memory.RoleAssistant, Content: "Sunny", Agents: []string{"general"}}}
	assert.NotEqual(t, base, CacheKey("And tomorrow?", "", other), "handling agent is part of the key")
}
