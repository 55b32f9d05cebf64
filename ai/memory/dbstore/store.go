// Package dbstore adapts the SQL conversation tables to memory.Store.
package dbstore

import (
	"context"
	"time"

	"github.com/hrygo/agenthub/ai/memory"
	"github.com/hrygo/agenthub/store"
)

// TurnStore is the subset of *store.Store used here.
type TurnStore interface {
	AppendConversationTurns(ctx context.Context, turns ...*store.ConversationTurn) error
	ListConversationTurns(ctx context.Context, find *store.FindConversationTurn) ([]*store.ConversationTurn, error)
	DeleteConversationTurns(ctx context.Context, delete *store.DeleteConversationTurn) error
}

// Store persists turns through the store layer (sqlite or postgres).
type Store struct {
	db TurnStore
}

var _ memory.Store = (*Store)(nil)

func NewStore(db TurnStore) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, sessionID string, turns ...memory.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	rows := make([]*store.ConversationTurn, 0, len(turns))
	for _, t := range turns {
		rows = append(rows, &store.ConversationTurn{
			UID:         t.ID,
			SessionID:   sessionID,
			Role:        t.Role,
			Content:     t.Content,
			Agents:      t.Agents,
			HoldSession: t.HoldSession,
			HeldBy:      t.HeldBy,
			CreatedTs:   t.CreatedAt.Unix(),
		})
	}
	return s.db.AppendConversationTurns(ctx, rows...)
}

func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]memory.Turn, error) {
	if limit < 0 {
		limit = 0
	}
	rows, err := s.db.ListConversationTurns(ctx, &store.FindConversationTurn{SessionID: sessionID, Limit: limit})
	if err != nil {
		return nil, err
	}
	turns := make([]memory.Turn, 0, len(rows))
	for _, r := range rows {
		turns = append(turns, memory.Turn{
			ID:          r.UID,
			Role:        r.Role,
			Content:     r.Content,
			Agents:      r.Agents,
			HoldSession: r.HoldSession,
			HeldBy:      r.HeldBy,
			CreatedAt:   time.Unix(r.CreatedTs, 0).UTC(),
		})
	}
	return turns, nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	return s.db.DeleteConversationTurns(ctx, &store.DeleteConversationTurn{SessionID: sessionID})
}
