package store

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ConversationTurn is one persisted message of a session.
type ConversationTurn struct {
	ID          int64
	UID         string
	SessionID   string
	Role        string
	Content     string
	Agents      []string
	HoldSession bool
	HeldBy      []string
	CreatedTs   int64
}

// FindConversationTurn selects the newest turns of a session.
// Results are always returned oldest first.
type FindConversationTurn struct {
	SessionID string
	// Limit bounds the number of newest turns returned; 0 means all.
	Limit int
}

type DeleteConversationTurn struct {
	SessionID string
}

// MarshalAgents encodes the agent list for a text column.
func MarshalAgents(agents []string) (string, error) {
	if len(agents) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(agents)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal agents")
	}
	return string(b), nil
}

// UnmarshalAgents decodes an agent list column.
func UnmarshalAgents(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var agents []string
	if err := json.Unmarshal([]byte(raw), &agents); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal agents")
	}
	if len(agents) == 0 {
		return nil, nil
	}
	return agents, nil
}

// ReverseTurns flips newest-first rows into chronological order in place.
func ReverseTurns(list []*ConversationTurn) {
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
}
