// Package session holds per-session workflow state and the per-session lock
// that serialises requests of one session.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrLockTimeout is returned when a session lock could not be acquired in time.
	ErrLockTimeout = errors.New("session lock timeout")

	// ErrNotFound is returned by state lookups with no stored value.
	ErrNotFound = errors.New("session state not found")
)

// Locker serialises work per session.
type Locker interface {
	// Lock blocks until the session is free, ctx is done or the wait times out.
	// The returned function releases the lock and is safe to call once.
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

// StateStore is a key/value store for JSON-serialisable workflow state.
type StateStore interface {
	// Load decodes the value under key into v. Missing keys return ErrNotFound.
	Load(ctx context.Context, key string, v any) error
	Save(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}

// LockConfig bounds lock waits and lease lengths.
type LockConfig struct {
	// Wait is how long Lock waits before giving up with ErrLockTimeout.
	Wait time.Duration
	// Lease is how long a distributed lock lives if the holder dies.
	Lease time.Duration
	// Retry is the polling interval for distributed locks.
	Retry time.Duration
}

// DefaultLockConfig returns defaults sized for a 120 s request budget.
func DefaultLockConfig() LockConfig {
	return LockConfig{
		Wait:  150 * time.Second,
		Lease: 180 * time.Second,
		Retry: 50 * time.Millisecond,
	}
}

func (c LockConfig) withDefaults() LockConfig {
	def := DefaultLockConfig()
	if c.Wait <= 0 {
		c.Wait = def.Wait
	}
	if c.Lease <= 0 {
		c.Lease = def.Lease
	}
	if c.Retry <= 0 {
		c.Retry = def.Retry
	}
	return c
}
