package postgres

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recycle-rewards/internal/domain"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	repo, err := Connect(url, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	require.NoError(t, repo.RunMigrations(context.Background()))
	return repo
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	userID := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, repo.RecordWasteLog(ctx, domain.WasteLogEntry{
		ID: uuid.NewString(), UserID: userID, WasteType: "plastic", Weight: 2.5, PointsEarned: 125, CreatedAt: base,
	}))
	require.NoError(t, repo.RecordWasteLog(ctx, domain.WasteLogEntry{
		ID: uuid.NewString(), UserID: userID, WasteType: "cans", Weight: 1, PointsEarned: 80, CreatedAt: base.Add(time.Second),
	}))
	require.NoError(t, repo.RecordRedemption(ctx, domain.Redemption{
		ID: uuid.NewString(), UserID: userID, RewardID: "notebook-set", PointsSpent: 300, BalanceAfter: 0, CreatedAt: base,
	}))
	require.NoError(t, repo.RecordQuizAttempt(ctx, domain.QuizAttempt{
		ID: uuid.NewString(), UserID: userID, QuestionID: "paper-carbon", Selected: 3, Correct: true,
		PointsAwarded: 50, PointsCredited: 50, CreatedAt: base,
	}))

	logs, err := repo.WasteLogs(ctx, userID, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "cans", logs[0].WasteType)

	logs, err = repo.WasteLogs(ctx, userID, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	totals, err := repo.WasteTotals(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, totals["plastic"], 2.5)

	reds, err := repo.Redemptions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, reds, 1)
	assert.Equal(t, int64(300), reds[0].PointsSpent)

	attempts, err := repo.QuizAttempts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Correct)
}

func TestMirror(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     uuid.NewString() + "@example.com",
		Name:      "Ada",
		Role:      domain.RoleChild,
		Points:    40,
		Badges:    []string{"first-steps"},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.UpsertUsers(ctx, []*domain.User{u}))
	u.Points = 90
	require.NoError(t, repo.UpsertUsers(ctx, []*domain.User{u}))

	users, err := repo.LoadUsers(ctx)
	require.NoError(t, err)
	var found *domain.User
	for _, got := range users {
		if got.ID == u.ID {
			found = got
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, int64(90), found.Points)
	assert.Equal(t, []string{"first-steps"}, found.Badges)
	assert.Empty(t, found.CompletedQuizzes)

	first := domain.LeaderboardEntry{ID: uuid.NewString(), Name: "First", Type: domain.KindSchool, Points: 10}
	second := domain.LeaderboardEntry{ID: uuid.NewString(), Name: "Second", Type: domain.KindFamily, Points: 20, TotalWaste: 0.5}
	require.NoError(t, repo.UpsertParticipants(ctx, []domain.LeaderboardEntry{first, second}))
	first.Points = 30
	require.NoError(t, repo.UpsertParticipants(ctx, []domain.LeaderboardEntry{first}))

	entries, err := repo.LoadParticipants(ctx)
	require.NoError(t, err)
	pos := map[string]int{}
	for i, e := range entries {
		pos[e.ID] = i
		if e.ID == first.ID {
			assert.Equal(t, int64(30), e.Points)
		}
	}
	assert.Less(t, pos[first.ID], pos[second.ID])
}
