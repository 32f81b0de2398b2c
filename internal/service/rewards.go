package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/recycle-rewards/internal/domain"
)

// RewardList is the catalog view of rewards for one category
type RewardList struct {
	Category string          `json:"category"`
	Rewards  []domain.Reward `json:"rewards"`
	Counts   map[string]int  `json:"counts"`
}

// Rewards lists the catalog rewards of a category ("" or "all" for every reward)
func (s *RewardsService) Rewards(category string) RewardList {
	if category == "" {
		category = "all"
	}
	return RewardList{
		Category: category,
		Rewards:  s.catalog.RewardsByCategory(category),
		Counts:   s.catalog.RewardCounts(),
	}
}

// CheckReward reports whether the user could redeem the reward right now
func (s *RewardsService) CheckReward(ctx context.Context, userID, rewardID string) (domain.RedemptionCheck, error) {
	reward, ok := s.catalog.Reward(rewardID)
	if !ok {
		return domain.RedemptionCheck{}, domain.ErrRewardNotFound
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.RedemptionCheck{}, err
	}
	return domain.CheckRedemption(reward, user.Points), nil
}

// Redeem exchanges points for a reward. The balance is re-validated inside
// the store's atomic update, so two concurrent redemptions can never spend
// the same points twice.
func (s *RewardsService) Redeem(ctx context.Context, userID, rewardID string) (*domain.RedemptionResult, error) {
	reward, ok := s.catalog.Reward(rewardID)
	if !ok {
		return nil, domain.ErrRewardNotFound
	}

	user, err := s.users.UpdateUser(ctx, userID, func(u *domain.User) error {
		return u.Redeem(reward)
	})
	if err != nil {
		s.metrics.Redemption(redemptionOutcome(err))
		if domain.IsRejectedError(err) || domain.IsNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("redeeming reward: %w", err)
	}
	s.metrics.Redemption("success")

	redemption := domain.Redemption{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		RewardID:     reward.ID,
		PointsSpent:  reward.PointsCost,
		BalanceAfter: user.Points,
		CreatedAt:    s.now().UTC(),
	}
	s.record(ctx, "redemption", redemption, func(ctx context.Context) error {
		return s.ledger.RecordRedemption(ctx, redemption)
	})

	s.logger.Info("reward redeemed", "user_id", user.ID, "reward_id", reward.ID, "balance", user.Points)
	return &domain.RedemptionResult{Redemption: redemption, User: user}, nil
}

func redemptionOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientPoints):
		return "insufficient_points"
	case errors.Is(err, domain.ErrRewardUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	}
	return "error"
}

// AnswerQuiz scores an answer. A correct answer credits the question's points
// the first time only; later correct answers score but credit nothing.
func (s *RewardsService) AnswerQuiz(ctx context.Context, userID, questionID string, selected *int) (*domain.QuizAnswerResult, error) {
	question, ok := s.catalog.Question(questionID)
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	result, err := domain.ScoreAnswer(question, selected)
	if err != nil {
		return nil, err
	}

	var (
		user      *domain.User
		credited  int64
		newBadges []domain.Badge
	)
	if result.Correct {
		user, err = s.users.UpdateUser(ctx, userID, func(u *domain.User) error {
			credited, newBadges = 0, nil
			if u.HasCompletedQuiz(question.ID) {
				return nil
			}
			u.CompletedQuizzes = append(u.CompletedQuizzes, question.ID)
			credited = result.PointsAwarded
			newBadges = u.AddPoints(credited, s.catalog.Badges)
			return nil
		})
	} else {
		user, err = s.users.GetUser(ctx, userID)
	}
	if err != nil {
		if domain.IsNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("answering quiz: %w", err)
	}

	attempt := domain.QuizAttempt{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		QuestionID:     question.ID,
		Selected:       result.Selected,
		Correct:        result.Correct,
		PointsAwarded:  result.PointsAwarded,
		PointsCredited: credited,
		CreatedAt:      s.now().UTC(),
	}
	s.record(ctx, "quiz_attempt", attempt, func(ctx context.Context) error {
		return s.ledger.RecordQuizAttempt(ctx, attempt)
	})

	if credited > 0 {
		s.metrics.PointsAwarded("quiz", credited)
		s.metrics.BadgesAwarded(len(newBadges))
		s.contribute(ctx, user, credited, 0)
	}

	if newBadges == nil {
		newBadges = []domain.Badge{}
	}
	return &domain.QuizAnswerResult{
		Result:         result,
		PointsCredited: credited,
		User:           user,
		NewBadges:      newBadges,
	}, nil
}

// Questions returns the quiz without answers, marking the ones the user completed
func (s *RewardsService) Questions(user *domain.User) []QuizQuestionView {
	out := make([]QuizQuestionView, 0, len(s.catalog.Questions))
	for _, q := range s.catalog.Questions {
		out = append(out, QuizQuestionView{
			PublicQuestion: q.Public(),
			Completed:      user != nil && slices.Contains(user.CompletedQuizzes, q.ID),
		})
	}
	return out
}

// QuizQuestionView is a question as shown to one user
type QuizQuestionView struct {
	domain.PublicQuestion
	Completed bool `json:"completed"`
}

// Redemptions returns the user's redemption history, newest first
func (s *RewardsService) Redemptions(ctx context.Context, userID string) ([]domain.Redemption, error) {
	out, err := s.ledger.Redemptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting redemptions: %w", err)
	}
	return out, nil
}

// QuizAttempts returns the user's quiz history, newest first
func (s *RewardsService) QuizAttempts(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	out, err := s.ledger.QuizAttempts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting quiz attempts: %w", err)
	}
	return out, nil
}
