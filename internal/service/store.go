package service

import (
	"context"
	"time"

	"github.com/recycle-rewards/internal/domain"
)

// UserStore persists user records. UpdateUser must run fn atomically with
// respect to other updates of the same user: fn sees the latest record and
// its changes are either fully stored or, when fn returns an error, dropped.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, fn func(*domain.User) error) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionStore persists sessions and the wizard state they carry
type SessionStore interface {
	CreateSession(ctx context.Context, s *domain.Session, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (*domain.Session, error)
	SaveSession(ctx context.Context, s *domain.Session) error
	DeleteSession(ctx context.Context, token string) error
}

// Board holds the leaderboard participants in join order
type Board interface {
	UpsertParticipant(ctx context.Context, e domain.LeaderboardEntry) error
	AddContribution(ctx context.Context, id string, points int64, wasteKg float64) error
	Participants(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// Ledger is the append-only audit trail
type Ledger interface {
	RecordWasteLog(ctx context.Context, e domain.WasteLogEntry) error
	RecordRedemption(ctx context.Context, r domain.Redemption) error
	RecordQuizAttempt(ctx context.Context, a domain.QuizAttempt) error
	WasteLogs(ctx context.Context, userID string, limit int) ([]domain.WasteLogEntry, error)
	WasteTotals(ctx context.Context) (map[string]float64, error)
	Redemptions(ctx context.Context, userID string) ([]domain.Redemption, error)
	QuizAttempts(ctx context.Context, userID string) ([]domain.QuizAttempt, error)
}

// Broadcaster pushes leaderboard changes to realtime subscribers
type Broadcaster interface {
	BroadcastLeaderboard(filter domain.KindFilter, entries []domain.LeaderboardEntry)
	HasSubscribers(filter domain.KindFilter) bool
}

// Recorder receives domain counters
type Recorder interface {
	WasteLogged(wasteType string, weightKg float64, points int64)
	PointsAwarded(source string, points int64)
	Redemption(outcome string)
	BadgesAwarded(n int)
	LedgerFailure(kind string)
}

type nopRecorder struct{}

func (nopRecorder) WasteLogged(string, float64, int64) {}
func (nopRecorder) PointsAwarded(string, int64)        {}
func (nopRecorder) Redemption(string)                  {}
func (nopRecorder) BadgesAwarded(int)                  {}
func (nopRecorder) LedgerFailure(string)               {}
