// Package simple provides an in-process conversation memory.
// Suitable for single-instance deployments and tests; nothing survives a restart.
package simple

import (
	"context"
	"sync"

	"github.com/hrygo/agenthub/ai/memory"
)

// DefaultMaxTurns bounds how many turns a session keeps.
const DefaultMaxTurns = 200

// Store keeps session logs in a map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]memory.Turn
	maxTurns int
}

var _ memory.Store = (*Store)(nil)

// NewStore creates an in-process store. maxTurns <= 0 uses DefaultMaxTurns.
func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Store{
		sessions: make(map[string][]memory.Turn),
		maxTurns: maxTurns,
	}
}

func (s *Store) Append(_ context.Context, sessionID string, turns ...memory.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	log := append(s.sessions[sessionID], turns...)
	if over := len(log) - s.maxTurns; over > 0 {
		log = append([]memory.Turn(nil), log[over:]...)
	}
	s.sessions[sessionID] = log
	return nil
}

func (s *Store) Recent(_ context.Context, sessionID string, limit int) ([]memory.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.sessions[sessionID]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]memory.Turn, len(log))
	copy(out, log)
	return out, nil
}

func (s *Store) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
