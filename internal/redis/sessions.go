package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recycle-rewards/internal/domain"
)

// CreateSession stores a session that expires after ttl
func (s *Store) CreateSession(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	if ttl > 0 {
		sess.ExpiresAt = time.Now().UTC().Add(ttl)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("setting session: %w", err)
	}
	return nil
}

// GetSession returns a live session. Redis drops expired ones.
func (s *Store) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshaling session: %w", err)
	}
	return &sess, nil
}

// SaveSession rewrites a session, preserving its remaining TTL
func (s *Store) SaveSession(ctx context.Context, sess *domain.Session) error {
	key := sessionKey(sess.Token)

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("getting session ttl: %w", err)
	}
	// -2 means the key is gone, -1 that it never expires
	if ttl == -2 {
		return domain.ErrSessionNotFound
	}
	if ttl < 0 {
		ttl = 0
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

// DeleteSession removes a session
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
