package redis

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/recycle-rewards/internal/domain"
)

// storedUser keeps the password hash, which domain.User hides from JSON
type storedUser struct {
	*domain.User
	PasswordHash string `json:"password_hash"`
}

func marshalUser(u *domain.User) ([]byte, error) {
	data, err := json.Marshal(storedUser{User: u, PasswordHash: u.PasswordHash})
	if err != nil {
		return nil, fmt.Errorf("marshaling user: %w", err)
	}
	return data, nil
}

func unmarshalUser(data []byte) (*domain.User, error) {
	var su storedUser
	if err := json.Unmarshal(data, &su); err != nil {
		return nil, fmt.Errorf("unmarshaling user: %w", err)
	}
	if su.User == nil {
		return nil, fmt.Errorf("unmarshaling user: empty record")
	}
	su.User.PasswordHash = su.PasswordHash
	return su.User, nil
}

// CreateUser stores a new user, claiming its email first
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	data, err := marshalUser(u)
	if err != nil {
		return err
	}

	email := strings.ToLower(u.Email)
	claimed, err := s.client.SetNX(ctx, emailKey(email), u.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claiming email: %w", err)
	}
	if !claimed {
		return domain.ErrUserExists
	}

	created, err := s.client.SetNX(ctx, userKey(u.ID), data, 0).Result()
	if err != nil || !created {
		s.client.Del(ctx, emailKey(email))
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		return domain.ErrUserExists
	}

	if err := s.client.SAdd(ctx, usersKey, u.ID).Err(); err != nil {
		// Undo the record and the email claim so the email stays usable
		s.client.Del(ctx, userKey(u.ID), emailKey(email))
		return fmt.Errorf("indexing user: %w", err)
	}
	return nil
}

// DeleteUser removes a user, its email claim and its index entry
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	u, err := s.GetUser(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	email := emailKey(strings.ToLower(u.Email))
	owner, err := s.client.Get(ctx, email).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("getting email claim: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, userKey(id))
	pipe.SRem(ctx, usersKey, id)
	if owner == id {
		pipe.Del(ctx, email)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// GetUser returns a user by id
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return unmarshalUser(data)
}

// UpdateUser runs fn inside a WATCH/MULTI transaction on the user key. When
// another client changes the user first the transaction is retried with the
// fresh record; after maxRetries attempts ErrConflict is returned.
func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*domain.User) error) (*domain.User, error) {
	key := userKey(id)

	var updated *domain.User
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("getting user: %w", err)
		}
		u, err := unmarshalUser(data)
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
		out, err := marshalUser(u)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = u
		return nil
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("user update conflict, retrying", "user_id", id, "attempt", attempt+1)
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("updating user %s: %w", id, domain.ErrConflict)
}

// ListUsers returns every user ordered by creation time
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	ids, err := s.client.SMembers(ctx, usersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing user ids: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("getting users: %w", err)
	}

	users := make([]*domain.User, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a record
			s.logger.Warn("user index points at missing record", "user_id", ids[i])
			continue
		}
		u, err := unmarshalUser([]byte(raw))
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	slices.SortFunc(users, func(a, b *domain.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return users, nil
}

// RestoreUsers inserts the users Redis does not hold yet. A record that
// already exists is newer than any mirror and is left alone.
func (s *Store) RestoreUsers(ctx context.Context, users []*domain.User) (int, error) {
	n := 0
	for _, u := range users {
		data, err := marshalUser(u)
		if err != nil {
			return n, err
		}
		created, err := s.client.SetNX(ctx, userKey(u.ID), data, 0).Result()
		if err != nil {
			return n, fmt.Errorf("restoring user %s: %w", u.ID, err)
		}
		if !created {
			continue
		}

		pipe := s.client.Pipeline()
		pipe.SetNX(ctx, emailKey(strings.ToLower(u.Email)), u.ID, 0)
		pipe.SAdd(ctx, usersKey, u.ID)
		if _, err := pipe.Exec(ctx); err != nil {
			return n, fmt.Errorf("indexing user %s: %w", u.ID, err)
		}
		n++
	}
	return n, nil
}
