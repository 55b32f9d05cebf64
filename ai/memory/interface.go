// Package memory provides per-session conversation memory for the orchestrator.
package memory

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// Roles used in conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of a session.
type Turn struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`

	// Agents that produced an assistant turn, in dispatch order.
	Agents []string `json:"agents,omitempty"`

	// HoldSession marks an assistant turn whose agent is mid-way through a
	// multi-step flow; the next user turn is routed straight back to it.
	HoldSession bool `json:"hold_session,omitempty"`

	// HeldBy names the agents that asked to hold the session. Sticky turns go
	// only to these, not to every agent of the turn.
	HeldBy []string `json:"held_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewTurn creates a turn with a fresh id and timestamp.
func NewTurn(role, content string) Turn {
	return Turn{
		ID:        shortuuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Store is an append-only, ordered log of turns keyed by session.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append adds turns to the end of the session log, preserving their order.
	Append(ctx context.Context, sessionID string, turns ...Turn) error

	// Recent returns up to limit of the newest turns, oldest first.
	// limit <= 0 returns the whole log.
	Recent(ctx context.Context, sessionID string, limit int) ([]Turn, error)

	// Clear drops the session log.
	Clear(ctx context.Context, sessionID string) error
}

// LastAssistant returns the most recent assistant turn.
func LastAssistant(turns []Turn) (Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleAssistant {
			return turns[i], true
		}
	}
	return Turn{}, false
}
