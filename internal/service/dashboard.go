package service

import (
	"context"
	"fmt"

	"github.com/recycle-rewards/internal/domain"
)

// Dashboard builds the role specific dashboard of a user
func (s *RewardsService) Dashboard(ctx context.Context, userID string) (domain.Dashboard, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.Dashboard{}, err
	}

	d, err := domain.BuildDashboard(user, dashboardSource{ctx: ctx, s: s, userID: user.ID}, domain.DashboardOptions{
		WeeklyGoalKg: s.opts.Rules.WeeklyGoalKg,
		Badges:       s.catalog.Badges,
		Now:          s.now(),
	})
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("building dashboard: %w", err)
	}
	return d, nil
}

// BadgeBoard returns every catalog badge with the user's progress
func (s *RewardsService) BadgeBoard(ctx context.Context, userID string) (domain.BadgeBoard, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.BadgeBoard{}, err
	}
	return domain.BuildBadgeBoard(s.catalog.Badges, user.Points, user.Badges), nil
}

type dashboardSource struct {
	ctx    context.Context
	s      *RewardsService
	userID string
}

func (d dashboardSource) UserLogs() ([]domain.WasteLogEntry, error) {
	logs, err := d.s.ledger.WasteLogs(d.ctx, d.userID, 0)
	if err != nil {
		return nil, fmt.Errorf("getting waste logs: %w", err)
	}
	return logs, nil
}

func (d dashboardSource) Participants() ([]domain.LeaderboardEntry, error) {
	entries, err := d.s.board.Participants(d.ctx)
	if err != nil {
		return nil, fmt.Errorf("getting participants: %w", err)
	}
	return entries, nil
}

func (d dashboardSource) Platform() (domain.PlatformData, error) {
	users, err := d.s.users.ListUsers(d.ctx)
	if err != nil {
		return domain.PlatformData{}, fmt.Errorf("listing users: %w", err)
	}
	totals, err := d.s.ledger.WasteTotals(d.ctx)
	if err != nil {
		return domain.PlatformData{}, fmt.Errorf("getting waste totals: %w", err)
	}
	return domain.PlatformData{Users: users, WasteByType: totals}, nil
}
