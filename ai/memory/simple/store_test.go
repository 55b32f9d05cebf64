package simple

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/agenthub/ai/memory"
)

func TestStore_AppendRecent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	require.NoError(t, s.Append(ctx, "s1",
		memory.NewTurn(memory.RoleUser, "q1"),
		memory.NewTurn(memory.RoleAssistant, "a1"),
		memory.NewTurn(memory.RoleUser, "q2"),
	))

	all, err := s.Recent(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "q1", all[0].Content)

	last2, err := s.Recent(ctx, "s1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "q2"}, []string{last2[0].Content, last2[1].Content})

	other, err := s.Recent(ctx, "unknown", 5)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_MaxTurnsDropsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewStore(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, "s", memory.NewTurn(memory.RoleUser, fmt.Sprint(i))))
	}
	turns, _ := s.Recent(ctx, "s", 0)
	require.Len(t, turns, 3)
	assert.Equal(t, "2", turns[0].Content)
}

func TestStore_RecentReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)
	require.NoError(t, s.Append(ctx, "s", memory.NewTurn(memory.RoleUser, "x")))

	turns, _ := s.Recent(ctx, "s", 0)
	turns[0].Content = "mutated"

	again, _ := s.Recent(ctx, "s", 0)
	assert.Equal(t, "x", again[0].Content)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)
	require.NoError(t, s.Append(ctx, "s", memory.NewTurn(memory.RoleUser, "x")))
	require.NoError(t, s.Clear(ctx, "s"))

	turns, _ := s.Recent(ctx, "s", 0)
	assert.Empty(t, turns)
}

func TestStore_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	s := NewStore(1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, "s", memory.NewTurn(memory.RoleUser, "u"), memory.NewTurn(memory.RoleAssistant, "a"))
		}()
	}
	wg.Wait()

	turns, _ := s.Recent(ctx, "s", 0)
	require.Len(t, turns, 100)
	// Pairs appended in one call stay adjacent.
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, memory.RoleUser, turns[i].Role)
		assert.Equal(t, memory.RoleAssistant, turns[i+1].Role)
	}
}
