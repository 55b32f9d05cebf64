package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/agenthub/internal/profile"
	"github.com/hrygo/agenthub/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	p := &profile.Profile{DSN: filepath.Join(t.TempDir(), "agenthub_test.db")}
	driver, err := NewDB(p)
	require.NoError(t, err)

	s := store.New(driver, p)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestConversationTurns_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AppendConversationTurns(ctx,
		&store.ConversationTurn{SessionID: "s1", Role: "user", Content: "hello"},
		&store.ConversationTurn{SessionID: "s1", Role: "assistant", Content: "hi", Agents: []string{"cicp", "weather"}, HoldSession: true, HeldBy: []string{"cicp"}},
		&store.ConversationTurn{SessionID: "s2", Role: "user", Content: "other"},
	))

	turns, err := s.ListConversationTurns(ctx, &store.FindConversationTurn{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, turns, 2)

	assert.Equal(t, "user", turns[0].Role)
	assert.Nil(t, turns[0].Agents)
	assert.Equal(t, "assistant", turns[1].Role)
	assert.Equal(t, []string{"cicp", "weather"}, turns[1].Agents)
	assert.True(t, turns[1].HoldSession)
	assert.Equal(t, []string{"cicp"}, turns[1].HeldBy)
	assert.Nil(t, turns[0].HeldBy)
	assert.NotEmpty(t, turns[1].UID)
	assert.NotZero(t, turns[1].CreatedTs)
}

func TestConversationTurns_LimitKeepsNewest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, content := range []string{"one", "two", "three", "four"} {
		require.NoError(t, s.AppendConversationTurns(ctx, &store.ConversationTurn{SessionID: "s", Role: "user", Content: content}))
	}

	turns, err := s.ListConversationTurns(ctx, &store.FindConversationTurn{SessionID: "s", Limit: 2})
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "three", turns[0].Content)
	assert.Equal(t, "four", turns[1].Content)
}

func TestConversationTurns_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AppendConversationTurns(ctx, &store.ConversationTurn{SessionID: "s", Role: "user", Content: "x"}))
	require.NoError(t, s.DeleteConversationTurns(ctx, &store.DeleteConversationTurn{SessionID: "s"}))

	turns, err := s.ListConversationTurns(ctx, &store.FindConversationTurn{SessionID: "s"})
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAppendConversationTurns_RequiresSession(t *testing.T) {
	s := newTestStore(t)
	err := s.AppendConversationTurns(context.Background(), &store.ConversationTurn{Role: "user"})
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}
