package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings for shared history.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// DefaultRedisConfig returns the local development configuration.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "regagent:session:",
		TTL:    24 * time.Hour,
	}
}

// RedisHistory stores conversation turns in a Redis list, one key per
// session. The key TTL is refreshed on every append.
type RedisHistory struct {
	client    *redis.Client
	key       string
	ttl       time.Duration
	maxTurns  int64
	sessionID string
}

// NewRedisHistory creates a Redis-backed History for one session.
// A non-positive maxTurns means unbounded.
func NewRedisHistory(cfg *RedisConfig, sessionID string, maxTurns int) *RedisHistory {
	if cfg == nil {
		cfg = DefaultRedisConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisHistory{
		client:    client,
		key:       cfg.Prefix + sessionID,
		ttl:       cfg.TTL,
		maxTurns:  int64(maxTurns),
		sessionID: sessionID,
	}
}

// Turns implements History.
func (h *RedisHistory) Turns(ctx context.Context) ([]Turn, error) {
	raw, err := h.client.LRange(ctx, h.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", h.sessionID, err)
	}
	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("corrupt turn in session %s: %w", h.sessionID, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Append implements History.
func (h *RedisHistory) Append(ctx context.Context, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	pipe := h.client.TxPipeline()
	for _, t := range turns {
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal turn: %w", err)
		}
		pipe.RPush(ctx, h.key, raw)
	}
	if h.maxTurns > 0 {
		pipe.LTrim(ctx, h.key, -h.maxTurns, -1)
	}
	if h.ttl > 0 {
		pipe.Expire(ctx, h.key, h.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to session %s: %w", h.sessionID, err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (h *RedisHistory) Close() error {
	return h.client.Close()
}
