package domain

import "time"

// RedemptionStatus is the outcome of checking a reward against a balance
type RedemptionStatus string

const (
	RedemptionRedeemable         RedemptionStatus = "redeemable"
	RedemptionInsufficientPoints RedemptionStatus = "insufficient_points"
	RedemptionUnavailable        RedemptionStatus = "unavailable"
)

// RedemptionCheck is returned by CheckRedemption. Shortfall is only set for
// RedemptionInsufficientPoints.
type RedemptionCheck struct {
	RewardID  string           `json:"reward_id"`
	Status    RedemptionStatus `json:"status"`
	Shortfall int64            `json:"shortfall,omitempty"`
}

// CheckRedemption decides whether a reward can be redeemed with balance.
// Availability is checked before affordability.
func CheckRedemption(reward Reward, balance int64) RedemptionCheck {
	check := RedemptionCheck{RewardID: reward.ID}
	switch {
	case !reward.Available:
		check.Status = RedemptionUnavailable
	case balance < reward.PointsCost:
		check.Status = RedemptionInsufficientPoints
		check.Shortfall = reward.PointsCost - balance
	default:
		check.Status = RedemptionRedeemable
	}
	return check
}

// Redemption is the audit record of a successful exchange
type Redemption struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RewardID     string    `json:"reward_id"`
	PointsSpent  int64     `json:"points_spent"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// RedemptionResult is returned to the caller after redeeming
type RedemptionResult struct {
	Redemption Redemption `json:"redemption"`
	User       *User      `json:"user"`
}
