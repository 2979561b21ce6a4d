package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
)

// RedisStore is a Redis implementation of the session store for headless
// deployments where several workers share one merchant session.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) ports.SessionStore {
	return &RedisStore{
		client: client,
		key:    "lumenpay:session",
	}
}

// Save stores the session, expiring the key with the token when possible.
func (s *RedisStore) Save(ctx context.Context, session core.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = time.Until(session.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}
	if err := s.client.Set(ctx, s.key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Load returns the stored session or core.ErrNoSession.
func (s *RedisStore) Load(ctx context.Context) (core.Session, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.Session{}, core.ErrNoSession
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	var session core.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return core.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return session, nil
}

// Clear drops the stored session.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
