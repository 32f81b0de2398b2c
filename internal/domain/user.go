package domain

import (
	"fmt"
	"slices"
	"time"
)

// Role is the kind of account a user registered as.
type Role string

const (
	RoleChild  Role = "child"
	RoleFamily Role = "family"
	RoleSchool Role = "school"
	RoleAdmin  Role = "admin"
)

// ParseRole validates a role received from outside the process.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleChild, RoleFamily, RoleSchool, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// RoleCases has one method per role. Adding a role to MatchRole means every
// implementation stops compiling until it handles the new case.
type RoleCases[T any] interface {
	Child() T
	Family() T
	School() T
	Admin() T
}

// MatchRole dispatches to the case for r. Roles are parsed at the boundary, so
// an unknown role here is a programming error.
func MatchRole[T any](r Role, cases RoleCases[T]) T {
	switch r {
	case RoleChild:
		return cases.Child()
	case RoleFamily:
		return cases.Family()
	case RoleSchool:
		return cases.School()
	case RoleAdmin:
		return cases.Admin()
	}
	panic(fmt.Sprintf("domain: unhandled role %q", r))
}

// User represents a registered participant of the program
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Role             Role      `json:"role"`
	Points           int64     `json:"points"`
	Badges           []string  `json:"badges"`
	CompletedQuizzes []string  `json:"completed_quizzes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	SchoolName       string    `json:"school_name,omitempty"`
	ParentEmail      string    `json:"parent_email,omitempty"`
	PasswordHash     string    `json:"-"`
}

// Clone returns a deep copy so stores never hand out shared slices.
func (u *User) Clone() *User {
	c := *u
	c.Badges = slices.Clone(u.Badges)
	c.CompletedQuizzes = slices.Clone(u.CompletedQuizzes)
	return &c
}

// HasBadge reports whether the badge id was already earned.
func (u *User) HasBadge(id string) bool {
	return slices.Contains(u.Badges, id)
}

// AddPoints credits points and returns the badges newly earned by the credit.
func (u *User) AddPoints(points int64, catalog []Badge) []Badge {
	if points > 0 {
		u.Points += points
	}
	return u.AwardBadges(catalog)
}

// AwardBadges records every badge the current balance qualifies for.
// Badges are only ever appended.
func (u *User) AwardBadges(catalog []Badge) []Badge {
	earned := EvaluateBadges(catalog, u.Points, u.Badges)
	for _, b := range earned {
		u.Badges = append(u.Badges, b.ID)
	}
	return earned
}

// Redeem re-validates the reward against the current balance and deducts its
// cost. On failure the user is left untouched.
func (u *User) Redeem(reward Reward) error {
	check := CheckRedemption(reward, u.Points)
	switch check.Status {
	case RedemptionUnavailable:
		return ErrRewardUnavailable
	case RedemptionInsufficientPoints:
		return &InsufficientPointsError{
			Cost:      reward.PointsCost,
			Balance:   u.Points,
			Shortfall: check.Shortfall,
		}
	}
	u.Points -= reward.PointsCost
	return nil
}

// HasCompletedQuiz reports whether the question already credited points.
func (u *User) HasCompletedQuiz(questionID string) bool {
	return slices.Contains(u.CompletedQuizzes, questionID)
}

// ParticipantKind returns how the user appears on the leaderboard. Admins are
// not ranked.
func (u *User) ParticipantKind() (ParticipantKind, bool) {
	return MatchRole[kindResult](u.Role, roleKinds{}).unpack()
}

type kindResult struct {
	kind ParticipantKind
	ok   bool
}

func (k kindResult) unpack() (ParticipantKind, bool) { return k.kind, k.ok }

type roleKinds struct{}

func (roleKinds) Child() kindResult  { return kindResult{KindIndividual, true} }
func (roleKinds) Family() kindResult { return kindResult{KindFamily, true} }
func (roleKinds) School() kindResult { return kindResult{KindSchool, true} }
func (roleKinds) Admin() kindResult  { return kindResult{} }
