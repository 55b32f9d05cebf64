package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error

	// ConversationTurn model related methods.
	CreateConversationTurns(ctx context.Context, turns []*ConversationTurn) error
	ListConversationTurns(ctx context.Context, find *FindConversationTurn) ([]*ConversationTurn, error)
	DeleteConversationTurns(ctx context.Context, delete *DeleteConversationTurn) error
}
