package dbstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/agenthub/ai/memory"
	"github.com/hrygo/agenthub/internal/profile"
	"github.com/hrygo/agenthub/store"
	"github.com/hrygo/agenthub/store/db/sqlite"
)

func TestStore_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()

	p := &profile.Profile{DSN: filepath.Join(t.TempDir(), "memory.db")}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	st := store.New(driver, p)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	s := NewStore(st)

	asst := memory.NewTurn(memory.RoleAssistant, "Please upload the damage photo.")
	asst.Agents = []string{"cicp", "weather"}
	asst.HoldSession = true
	asst.HeldBy = []string{"cicp"}
	require.NoError(t, s.Append(ctx, "claims", memory.NewTurn(memory.RoleUser, "here is my claim"), asst))

	turns, err := s.Recent(ctx, "claims", 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, asst.ID, turns[1].ID)
	assert.True(t, turns[1].HoldSession)
	assert.Equal(t, []string{"cicp", "weather"}, turns[1].Agents)
	assert.Equal(t, []string{"cicp"}, turns[1].HeldBy)

	last, ok := memory.LastAssistant(turns)
	require.True(t, ok)
	assert.True(t, last.HoldSession)

	require.NoError(t, s.Clear(ctx, "claims"))
	turns, err = s.Recent(ctx, "claims", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}
