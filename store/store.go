package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/agenthub/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.driver.Migrate(ctx); err != nil {
		return errors.Wrap(err, "failed to migrate")
	}
	return nil
}

// AppendConversationTurns persists turns in order, filling UID and CreatedTs when unset.
func (s *Store) AppendConversationTurns(ctx context.Context, turns ...*ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}
	now := time.Now().Unix()
	for _, t := range turns {
		if t.SessionID == "" {
			return errors.New("session id is required")
		}
		if t.UID == "" {
			t.UID = shortuuid.New()
		}
		if t.CreatedTs == 0 {
			t.CreatedTs = now
		}
	}
	return s.driver.CreateConversationTurns(ctx, turns)
}

func (s *Store) ListConversationTurns(ctx context.Context, find *FindConversationTurn) ([]*ConversationTurn, error) {
	return s.driver.ListConversationTurns(ctx, find)
}

func (s *Store) DeleteConversationTurns(ctx context.Context, delete *DeleteConversationTurn) error {
	return s.driver.DeleteConversationTurns(ctx, delete)
}
