package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a distributed per-session lock built on SET NX PX.
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
	config    LockConfig
}

var _ Locker = (*RedisLocker)(nil)

func NewRedisLocker(client redis.UniversalClient, cfg LockConfig) *RedisLocker {
	return &RedisLocker{
		client:    client,
		keyPrefix: "agenthub:lock:",
		config:    cfg.withDefaults(),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := l.keyPrefix + sessionID
	token := uuid.NewString()
	deadline := time.Now().Add(l.config.Wait)

	ticker := time.NewTicker(l.config.Retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.config.Lease).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Release must outlive a cancelled request context.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			slog.Warn("session: failed to release lock", "session_id", sessionID, "error", err)
		}
	}, nil
}

// RedisStateStore stores JSON state values in Redis.
type RedisStateStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

var _ StateStore = (*RedisStateStore)(nil)

// NewRedisStateStore creates a state store; ttl 0 keeps values forever.
func NewRedisStateStore(client redis.UniversalClient, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{client: client, keyPrefix: "agenthub:state:", ttl: ttl}
}

func (r *RedisStateStore) Load(ctx context.Context, key string, v any) error {
	data, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load session state %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode session state %s: %w", key, err)
	}
	return nil
}

func (r *RedisStateStore) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode session state %s: %w", key, err)
	}
	return r.client.Set(ctx, r.keyPrefix+key, data, r.ttl).Err()
}

func (r *RedisStateStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.keyPrefix+key).Err()
}
