package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/agenthub/store"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewFromDB(db), mock
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", placeholder(1))
	assert.Equal(t, "$1, $2, $3", placeholders(3))
}

func TestCreateConversationTurns(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO conversation_turn")).
		WithArgs("u1", "s1", "user", "hello", "[]", false, "[]", int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO conversation_turn")).
		WithArgs("u2", "s1", "assistant", "hi", `["cicp","viz"]`, true, `["cicp"]`, int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	turns := []*store.ConversationTurn{
		{UID: "u1", SessionID: "s1", Role: "user", Content: "hello", CreatedTs: 100},
		{UID: "u2", SessionID: "s1", Role: "assistant", Content: "hi", Agents: []string{"cicp", "viz"}, HoldSession: true, HeldBy: []string{"cicp"}, CreatedTs: 100},
	}
	require.NoError(t, d.CreateConversationTurns(context.Background(), turns))
	assert.Equal(t, int64(2), turns[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConversationTurns_RollsBackOnError(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO conversation_turn")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := d.CreateConversationTurns(context.Background(), []*store.ConversationTurn{{UID: "u", SessionID: "s", Role: "user"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListConversationTurns_Chronological(t *testing.T) {
	d, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "uid", "session_id", "role", "content", "agents", "hold_session", "held_by", "created_ts"}).
		AddRow(4, "u4", "s1", "assistant", "answer", `["cicp","weather"]`, true, `["cicp"]`, 20).
		AddRow(3, "u3", "s1", "user", "question", `[]`, false, `[]`, 10)
	mock.ExpectQuery(regexp.QuoteMeta("FROM conversation_turn")).
		WithArgs("s1", 2).
		WillReturnRows(rows)

	turns, err := d.ListConversationTurns(context.Background(), &store.FindConversationTurn{SessionID: "s1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "question", turns[0].Content)
	assert.Equal(t, []string{"cicp", "weather"}, turns[1].Agents)
	assert.True(t, turns[1].HoldSession)
	assert.Equal(t, []string{"cicp"}, turns[1].HeldBy)
	assert.Nil(t, turns[0].HeldBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteConversationTurns(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM conversation_turn WHERE session_id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, d.DeleteConversationTurns(context.Background(), &store.DeleteConversationTurn{SessionID: "s1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertDocumentChunk(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_chunk (index_name, source, content, embedding, created_ts)")).
		WithArgs("cicp", "rules.pdf", "Rear damage requires a police report.", sqlmock.AnyArg(), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	chunk, err := d.UpsertDocumentChunk(context.Background(), &store.DocumentChunk{
		Index:     "cicp",
		Source:    "rules.pdf",
		Content:   "Rear damage requires a police report.",
		Embedding: []float32{0.1, 0.2},
		CreatedTs: 42,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), chunk.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertDocumentChunk_StampsCreatedTs(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_chunk")).
		WillReturnError(assert.AnError)

	chunk := &store.DocumentChunk{Index: "documents", Content: "x", Embedding: []float32{1}}
	_, err := d.UpsertDocumentChunk(context.Background(), chunk)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotZero(t, chunk.CreatedTs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchDocumentChunks(t *testing.T) {
	d, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "index_name", "source", "content", "created_ts", "score"}).
		AddRow(7, "cicp", "rules.pdf", "Rear damage requires a police report.", 1, float32(0.91))
	mock.ExpectQuery(regexp.QuoteMeta("FROM document_chunk")).
		WithArgs(sqlmock.AnyArg(), "cicp", 3).
		WillReturnRows(rows)

	results, err := d.SearchDocumentChunks(context.Background(), &store.DocumentSearchOptions{
		Index:  "cicp",
		Vector: []float32{0.1, 0.2},
		Limit:  3,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "rules.pdf", results[0].Chunk.Source)
	assert.InDelta(t, 0.91, results[0].Score, 1e-6)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchDocumentChunks_InvalidOptions(t *testing.T) {
	d, _ := newMockDB(t)
	_, err := d.SearchDocumentChunks(context.Background(), &store.DocumentSearchOptions{Index: "cicp"})
	assert.Error(t, err)
}
