package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/recycle-rewards/internal/domain"
)

// BatchResult counts the outcome of a batch submission
type BatchResult struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// LogWaste converts a collection into eco-points, credits the user and
// awards any badges the new balance unlocks. Invalid submissions are
// rejected before anything is stored.
func (s *RewardsService) LogWaste(ctx context.Context, sub domain.WasteSubmission) (*domain.WasteLogResult, error) {
	if err := domain.ValidateWeight(sub.Weight); err != nil {
		return nil, err
	}
	points, err := domain.CalculatePoints(s.catalog.WasteTypes, sub.WasteType, sub.Weight)
	if err != nil {
		return nil, err
	}

	var newBadges []domain.Badge
	user, err := s.users.UpdateUser(ctx, sub.UserID, func(u *domain.User) error {
		newBadges = u.AddPoints(points, s.catalog.Badges)
		return nil
	})
	if err != nil {
		if domain.IsNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("crediting user: %w", err)
	}

	entry := domain.WasteLogEntry{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		WasteType:     sub.WasteType,
		Weight:        sub.Weight,
		PointsEarned:  points,
		CreatedAt:     s.now().UTC(),
		ImpactMessage: domain.ImpactMessage(sub.WasteType, sub.Weight),
		Source:        sub.Source,
	}
	s.record(ctx, "waste_log", entry, func(ctx context.Context) error {
		return s.ledger.RecordWasteLog(ctx, entry)
	})

	s.metrics.WasteLogged(sub.WasteType, sub.Weight, points)
	s.metrics.PointsAwarded("waste", points)
	s.metrics.BadgesAwarded(len(newBadges))
	s.contribute(ctx, user, points, sub.Weight)

	if newBadges == nil {
		newBadges = []domain.Badge{}
	}
	return &domain.WasteLogResult{Entry: entry, User: user, NewBadges: newBadges}, nil
}

// LogWasteBatch logs several submissions, continuing past failures
func (s *RewardsService) LogWasteBatch(ctx context.Context, batch domain.BatchWasteSubmission) BatchResult {
	var res BatchResult
	for _, sub := range batch.Submissions {
		if _, err := s.LogWaste(ctx, sub); err != nil {
			res.Rejected++
			s.logger.Error("failed to log waste in batch",
				"user_id", sub.UserID,
				"waste_type", sub.WasteType,
				"error", err,
			)
			continue
		}
		res.Accepted++
	}
	return res
}

// WasteLogs returns the user's most recent entries
func (s *RewardsService) WasteLogs(ctx context.Context, userID string, limit int) ([]domain.WasteLogEntry, error) {
	if limit <= 0 {
		limit = s.opts.Leaderboard.DefaultLimit
	}
	if limit > s.opts.Leaderboard.MaxLimit {
		limit = s.opts.Leaderboard.MaxLimit
	}
	logs, err := s.ledger.WasteLogs(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("getting waste logs: %w", err)
	}
	return logs, nil
}

// contribute mirrors a credit onto the leaderboard and notifies subscribers
func (s *RewardsService) contribute(ctx context.Context, user *domain.User, points int64, wasteKg float64) {
	kind, ok := user.ParticipantKind()
	if !ok {
		return
	}
	err := s.board.AddContribution(ctx, user.ID, points, wasteKg)
	if errors.Is(err, domain.ErrUserNotFound) {
		entry := domain.LeaderboardEntry{ID: user.ID, Name: user.Name, Type: kind}
		if err = s.board.UpsertParticipant(ctx, entry); err == nil {
			err = s.board.AddContribution(ctx, user.ID, points, wasteKg)
		}
	}
	if err != nil {
		s.logger.Warn("failed to update leaderboard", "user_id", user.ID, "error", err)
		return
	}
	s.broadcast(ctx, kind)
}
