package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// LocalLocker is an in-process keyed mutex.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

var _ Locker = (*LocalLocker)(nil)

// NewLocalLocker creates an in-process locker.
func NewLocalLocker(cfg LockConfig) *LocalLocker {
	cfg = cfg.withDefaults()
	return &LocalLocker{slots: make(map[string]*slot), wait: cfg.Wait}
}

func (l *LocalLocker) acquireSlot(sessionID string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[sessionID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[sessionID] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) releaseSlot(sessionID string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, sessionID)
	}
}

func (l *LocalLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	s := l.acquireSlot(sessionID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(sessionID, s)
		return nil, ctx.Err()
	case <-timer.C:
		l.releaseSlot(sessionID, s)
		return nil, ErrLockTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.releaseSlot(sessionID, s)
		})
	}, nil
}

// MemoryStateStore keeps JSON-encoded state in a map, matching the
// copy semantics of the Redis store.
type MemoryStateStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ StateStore = (*MemoryStateStore)(nil)

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{values: make(map[string][]byte)}
}

func (m *MemoryStateStore) Load(_ context.Context, key string, v any) error {
	m.mu.RLock()
	data, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode session state %s: %w", key, err)
	}
	return nil
}

func (m *MemoryStateStore) Save(_ context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode session state %s: %w", key, err)
	}
	m.mu.Lock()
	m.values[key] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStateStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}
