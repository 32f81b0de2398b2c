package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recycle-rewards/internal/domain"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u1", Email: "a@example.com", Points: 10}))
	assert.ErrorIs(t, s.CreateUser(ctx, &domain.User{ID: "u2", Email: "A@example.com"}), domain.ErrUserExists)

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	u.Points = 999
	again, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), again.Points, "stored user must not alias returned copies")

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateUser_ErrorDropsChanges(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u1", Email: "a@example.com", Points: 10}))

	boom := errors.New("boom")
	_, err := s.UpdateUser(ctx, "u1", func(u *domain.User) error {
		u.Points = 0
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), u.Points)
}

func TestUpdateUser_ConcurrentRedeem(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u1", Email: "a@example.com", Points: 500}))
	reward := domain.Reward{ID: "r", PointsCost: 400, Available: true}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.UpdateUser(ctx, "u1", func(u *domain.User) error { return u.Redeem(reward) })
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientPoints):
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), u.Points)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.CreateSession(ctx, &domain.Session{Token: "t", UserID: "u1"}, time.Hour))

	sess, err := s.GetSession(ctx, "t")
	require.NoError(t, err)
	sess.Wizard.WasteType = "plastic"
	require.NoError(t, s.SaveSession(ctx, sess))

	sess, err = s.GetSession(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "plastic", sess.Wizard.WasteType)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)

	now = now.Add(2 * time.Hour)
	_, err = s.GetSession(ctx, "t")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, s.SaveSession(ctx, sess), domain.ErrSessionNotFound)

	require.NoError(t, s.DeleteSession(ctx, "t"))
}

func TestBoard(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	n, err := s.RestoreParticipants(ctx, domain.SeedParticipants())
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	require.NoError(t, s.UpsertParticipant(ctx, domain.LeaderboardEntry{ID: "u1", Name: "Ada", Type: domain.KindIndividual}))
	require.NoError(t, s.AddContribution(ctx, "u1", 125, 2.5))
	require.NoError(t, s.UpsertParticipant(ctx, domain.LeaderboardEntry{ID: "u1", Name: "Ada L", Type: domain.KindIndividual}))
	assert.ErrorIs(t, s.AddContribution(ctx, "ghost", 1, 1), domain.ErrUserNotFound)

	entries, err := s.Participants(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 11)

	n, err = s.RestoreParticipants(ctx, []domain.LeaderboardEntry{{ID: "u1", Name: "Stale", Points: 1}})
	require.NoError(t, err)
	assert.Zero(t, n)
	last := entries[10]
	assert.Equal(t, "Ada L", last.Name)
	assert.Equal(t, int64(125), last.Points)
	assert.Equal(t, 2.5, last.TotalWaste)
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, wt := range []string{"plastic", "cans", "plastic"} {
		require.NoError(t, s.RecordWasteLog(ctx, domain.WasteLogEntry{
			ID: wt + string(rune('a'+i)), UserID: "u1", WasteType: wt, Weight: 1, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, s.RecordRedemption(ctx, domain.Redemption{ID: "r1", UserID: "u1"}))
	require.NoError(t, s.RecordQuizAttempt(ctx, domain.QuizAttempt{ID: "q1", UserID: "u1"}))

	logs, err := s.WasteLogs(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "plasticc", logs[0].ID)

	totals, err := s.WasteTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"plastic": 2, "cans": 1}, totals)

	reds, err := s.Redemptions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, reds, 1)
	attempts, err := s.QuizAttempts(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}

func TestRestoreAndDeleteUsers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u1", Email: "a@example.com", Points: 100}))

	n, err := s.RestoreUsers(ctx, []*domain.User{
		{ID: "u1", Email: "a@example.com", Points: 500},
		{ID: "u2", Email: "b@example.com", Points: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	u1, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), u1.Points)

	require.NoError(t, s.DeleteUser(ctx, "u1"))
	_, err = s.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "u3", Email: "A@example.com"}))
}
