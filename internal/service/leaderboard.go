package service

import (
	"context"
	"fmt"

	"github.com/recycle-rewards/internal/domain"
)

// Leaderboard returns the ranked participants matching filter. Ranks are
// computed over the whole filtered set before the limit is applied.
func (s *RewardsService) Leaderboard(ctx context.Context, filter string, limit int) ([]domain.LeaderboardEntry, error) {
	f, err := domain.ParseKindFilter(filter)
	if err != nil {
		return nil, err
	}

	// Validate limit
	if limit <= 0 {
		limit = s.opts.Leaderboard.DefaultLimit
	}
	if limit > s.opts.Leaderboard.MaxLimit {
		limit = s.opts.Leaderboard.MaxLimit
	}

	return s.ranked(ctx, f, limit)
}

func (s *RewardsService) ranked(ctx context.Context, f domain.KindFilter, limit int) ([]domain.LeaderboardEntry, error) {
	participants, err := s.board.Participants(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting participants: %w", err)
	}
	entries := domain.RankEntries(participants, f)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// LeaderboardCounts returns the number of participants per kind
func (s *RewardsService) LeaderboardCounts(ctx context.Context) (map[domain.KindFilter]int, error) {
	participants, err := s.board.Participants(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting participants: %w", err)
	}
	return domain.KindCounts(participants), nil
}

// SeedLeaderboard adds the demo participants when the board is empty
func (s *RewardsService) SeedLeaderboard(ctx context.Context) error {
	participants, err := s.board.Participants(ctx)
	if err != nil {
		return fmt.Errorf("getting participants: %w", err)
	}
	if len(participants) > 0 {
		return nil
	}

	seed := domain.SeedParticipants()
	for _, e := range seed {
		if err := s.board.UpsertParticipant(ctx, e); err != nil {
			return fmt.Errorf("seeding participant %s: %w", e.ID, err)
		}
	}
	s.logger.Info("seeded leaderboard", "participants", len(seed))
	return nil
}

// broadcast pushes fresh rankings to subscribers of "all" and of kind
func (s *RewardsService) broadcast(ctx context.Context, kind domain.ParticipantKind) {
	if s.hub == nil {
		return
	}
	for _, f := range []domain.KindFilter{domain.KindAll, domain.KindFilter(kind)} {
		if !s.hub.HasSubscribers(f) {
			continue
		}
		entries, err := s.ranked(ctx, f, s.opts.Leaderboard.DefaultLimit)
		if err != nil {
			s.logger.Warn("failed to build leaderboard update", "type", f, "error", err)
			continue
		}
		s.hub.BroadcastLeaderboard(f, entries)
	}
}
