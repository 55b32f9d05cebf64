// Package redisstore keeps conversation memory in Redis lists so several
// hub instances can share sessions.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hrygo/agenthub/ai/memory"
)

// Config configures the Redis memory store.
type Config struct {
	KeyPrefix string
	MaxTurns  int
	// TTL expires idle sessions; 0 keeps them forever.
	TTL time.Duration
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "agenthub:memory:",
		MaxTurns:  200,
		TTL:       7 * 24 * time.Hour,
	}
}

// Store is a Redis-backed memory.Store. Each session is one list of JSON turns.
type Store struct {
	client redis.UniversalClient
	config Config
}

var _ memory.Store = (*Store)(nil)

// NewStore wraps an existing client.
func NewStore(client redis.UniversalClient, cfg Config) *Store {
	def := DefaultConfig()
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = def.MaxTurns
	}
	return &Store{client: client, config: cfg}
}

func (s *Store) key(sessionID string) string {
	return s.config.KeyPrefix + sessionID
}

func (s *Store) Append(ctx context.Context, sessionID string, turns ...memory.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]any, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal turn: %w", err)
		}
		values = append(values, data)
	}

	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-s.config.MaxTurns), -1)
	if s.config.TTL > 0 {
		pipe.Expire(ctx, key, s.config.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append turns: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]memory.Turn, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	raw, err := s.client.LRange(ctx, s.key(sessionID), start, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}

	turns := make([]memory.Turn, 0, len(raw))
	for _, item := range raw {
		var t memory.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
