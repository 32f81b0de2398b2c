// Package memory keeps every store in process memory. It backs the server
// when no Redis is configured and is used by the service tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/recycle-rewards/internal/domain"
)

// Store implements the user, session, board and ledger stores
type Store struct {
	mu sync.RWMutex

	users    map[string]*domain.User
	emails   map[string]string
	sessions map[string]*domain.Session

	participants []domain.LeaderboardEntry
	byID         map[string]int

	wasteLogs   map[string][]domain.WasteLogEntry
	wasteTotals map[string]float64
	redemptions []domain.Redemption
	attempts    []domain.QuizAttempt

	now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:       make(map[string]*domain.User),
		emails:      make(map[string]string),
		sessions:    make(map[string]*domain.Session),
		byID:        make(map[string]int),
		wasteLogs:   make(map[string][]domain.WasteLogEntry),
		wasteTotals: make(map[string]float64),
		now:         time.Now,
	}
}

// CreateUser stores a new user. Emails are unique.
func (s *Store) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, ok := s.emails[email]; ok {
		return domain.ErrUserExists
	}
	if _, ok := s.users[u.ID]; ok {
		return domain.ErrUserExists
	}
	s.users[u.ID] = u.Clone()
	s.emails[email] = u.ID
	return nil
}

// GetUser returns a copy of the user
func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

// UpdateUser runs fn on a copy of the user while holding the write lock and
// stores the copy only when fn succeeds.
func (s *Store) UpdateUser(_ context.Context, id string, fn func(*domain.User) error) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	next := u.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.users[id] = next
	return next.Clone(), nil
}

// ListUsers returns every user ordered by creation time
func (s *Store) ListUsers(_ context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Clone())
	}
	slices.SortFunc(out, func(a, b *domain.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// RestoreUsers inserts the users the store does not know yet. Existing
// records are newer than any mirror and are left alone.
func (s *Store) RestoreUsers(_ context.Context, users []*domain.User) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, u := range users {
		email := strings.ToLower(u.Email)
		if _, ok := s.users[u.ID]; ok {
			continue
		}
		if _, ok := s.emails[email]; ok {
			continue
		}
		s.users[u.ID] = u.Clone()
		s.emails[email] = u.ID
		n++
	}
	return n, nil
}

// DeleteUser removes a user and frees its email
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil
	}
	delete(s.users, id)
	if email := strings.ToLower(u.Email); s.emails[email] == id {
		delete(s.emails, email)
	}
	return nil
}

// CreateSession stores a session until ttl elapses
func (s *Store) CreateSession(_ context.Context, sess *domain.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *sess
	if ttl > 0 {
		c.ExpiresAt = s.now().Add(ttl)
	}
	s.sessions[sess.Token] = &c
	return nil
}

// GetSession returns a live session
func (s *Store) GetSession(_ context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, token)
		return nil, domain.ErrSessionNotFound
	}
	c := *sess
	return &c, nil
}

// SaveSession overwrites a live session, keeping its expiry
func (s *Store) SaveSession(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sessions[sess.Token]
	if !ok || cur.Expired(s.now()) {
		return domain.ErrSessionNotFound
	}
	c := *sess
	c.ExpiresAt = cur.ExpiresAt
	s.sessions[sess.Token] = &c
	return nil
}

// DeleteSession removes a session. Deleting an unknown session is not an error.
func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

// UpsertParticipant adds a participant at the end of the join order, or
// updates the name and kind of an existing one. Points and waste of an
// existing participant are kept.
func (s *Store) UpsertParticipant(_ context.Context, e domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.Rank = 0
	if i, ok := s.byID[e.ID]; ok {
		s.participants[i].Name = e.Name
		s.participants[i].Type = e.Type
		return nil
	}
	s.byID[e.ID] = len(s.participants)
	s.participants = append(s.participants, e)
	return nil
}

// AddContribution credits points and kilograms to a participant
func (s *Store) AddContribution(_ context.Context, id string, points int64, wasteKg float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	s.participants[i].Points += points
	s.participants[i].TotalWaste += wasteKg
	return nil
}

// Participants returns all participants in join order
func (s *Store) Participants(_ context.Context) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.participants), nil
}

// RestoreParticipants appends the participants the board does not know
// yet, keeping the given join order. Known participants are left alone.
func (s *Store) RestoreParticipants(_ context.Context, entries []domain.LeaderboardEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range entries {
		if _, ok := s.byID[e.ID]; ok {
			continue
		}
		e.Rank = 0
		s.byID[e.ID] = len(s.participants)
		s.participants = append(s.participants, e)
		n++
	}
	return n, nil
}

// RecordWasteLog appends a waste log entry
func (s *Store) RecordWasteLog(_ context.Context, e domain.WasteLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wasteLogs[e.UserID] = append(s.wasteLogs[e.UserID], e)
	s.wasteTotals[e.WasteType] += e.Weight
	return nil
}

// RecordRedemption appends a redemption
func (s *Store) RecordRedemption(_ context.Context, r domain.Redemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.redemptions = append(s.redemptions, r)
	return nil
}

// RecordQuizAttempt appends a quiz attempt
func (s *Store) RecordQuizAttempt(_ context.Context, a domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts = append(s.attempts, a)
	return nil
}

// WasteLogs returns a user's entries, newest first. A limit of zero or less
// returns all of them.
func (s *Store) WasteLogs(_ context.Context, userID string, limit int) ([]domain.WasteLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := s.wasteLogs[userID]
	out := make([]domain.WasteLogEntry, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		out = append(out, logs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// WasteTotals returns kilograms logged per waste type
func (s *Store) WasteTotals(_ context.Context) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]float64, len(s.wasteTotals))
	for k, v := range s.wasteTotals {
		out[k] = v
	}
	return out, nil
}

// Redemptions returns a user's redemptions, newest first
func (s *Store) Redemptions(_ context.Context, userID string) ([]domain.Redemption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Redemption{}
	for i := len(s.redemptions) - 1; i >= 0; i-- {
		if s.redemptions[i].UserID == userID {
			out = append(out, s.redemptions[i])
		}
	}
	return out, nil
}

// QuizAttempts returns a user's quiz attempts, newest first
func (s *Store) QuizAttempts(_ context.Context, userID string) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.QuizAttempt{}
	for i := len(s.attempts) - 1; i >= 0; i-- {
		if s.attempts[i].UserID == userID {
			out = append(out, s.attempts[i])
		}
	}
	return out, nil
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error {
	return nil
}
