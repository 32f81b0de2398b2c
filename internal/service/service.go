package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/recycle-rewards/internal/config"
	"github.com/recycle-rewards/internal/domain"
)

// Stores groups the backends the service works against
type Stores struct {
	Users    UserStore
	Sessions SessionStore
	Board    Board
	Ledger   Ledger
}

// Options are the parts of the configuration the service reads
type Options struct {
	Leaderboard config.LeaderboardConfig
	Rules       config.RulesConfig
	Session     config.SessionConfig
}

// RewardsService provides the business logic of the eco-points program
type RewardsService struct {
	users    UserStore
	sessions SessionStore
	board    Board
	ledger   Ledger
	catalog  *domain.Catalog
	opts     Options
	hub      Broadcaster
	metrics  Recorder
	logger   *slog.Logger
	now      func() time.Time

	ledgerBackoff time.Duration
}

// NewRewardsService creates a new rewards service
func NewRewardsService(stores Stores, catalog *domain.Catalog, opts Options, logger *slog.Logger) *RewardsService {
	return &RewardsService{
		users:    stores.Users,
		sessions: stores.Sessions,
		board:    stores.Board,
		ledger:   stores.Ledger,
		catalog:  catalog,
		opts:     opts,
		metrics:  nopRecorder{},
		logger:   logger,
		now:      time.Now,

		ledgerBackoff: 50 * time.Millisecond,
	}
}

// SetHub sets the broadcaster that receives leaderboard updates
func (s *RewardsService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// SetRecorder sets the metrics recorder
func (s *RewardsService) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.metrics = r
}

// Catalog returns the static reference data
func (s *RewardsService) Catalog() *domain.Catalog {
	return s.catalog
}

// Register validates a registration, creates the account, opens a session and
// joins the leaderboard. When any step fails the earlier ones are undone.
func (s *RewardsService) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.RegistrationResult, error) {
	role, err := domain.ValidateRegistration(req, s.opts.Rules.MinPasswordLength)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := domain.NewUser(uuid.NewString(), role, req, string(hash), s.catalog.Badges, s.now().UTC())
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		s.discardUser(ctx, user.ID)
		return nil, err
	}

	kind, ranked := user.ParticipantKind()
	if ranked {
		entry := domain.LeaderboardEntry{ID: user.ID, Name: user.Name, Type: kind}
		if err := s.board.UpsertParticipant(ctx, entry); err != nil {
			if derr := s.sessions.DeleteSession(ctx, token); derr != nil {
				s.logger.Warn("failed to delete session of discarded user", "user_id", user.ID, "error", derr)
			}
			s.discardUser(ctx, user.ID)
			return nil, fmt.Errorf("adding participant: %w", err)
		}
	}

	s.metrics.BadgesAwarded(len(user.Badges))
	if ranked {
		s.broadcast(ctx, kind)
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return &domain.RegistrationResult{User: user, SessionToken: token}, nil
}

// discardUser undoes CreateUser when a later registration step fails, so the
// email can be registered again
func (s *RewardsService) discardUser(ctx context.Context, id string) {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		s.logger.Error("failed to discard partially registered user", "user_id", id, "error", err)
	}
}

func (s *RewardsService) openSession(ctx context.Context, userID string) (string, error) {
	now := s.now().UTC()
	sess := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Wizard:    domain.Wizard{Step: domain.StepSelectType},
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.Session.TTL),
	}
	if err := s.sessions.CreateSession(ctx, sess, s.opts.Session.TTL); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return sess.Token, nil
}

// Session resolves a session token to the session and its user
func (s *RewardsService) Session(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	if token == "" {
		return nil, nil, domain.ErrSessionNotFound
	}
	sess, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, nil, err
	}
	return sess, user, nil
}

// Logout ends a session
func (s *RewardsService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// User returns a user by id
func (s *RewardsService) User(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetUser(ctx, id)
}
