package domain

import "slices"

// EvaluateBadges returns the badges whose threshold is met by points and that
// are not in earned yet, ordered by threshold. Every threshold crossed is
// returned, not only the highest.
func EvaluateBadges(catalog []Badge, points int64, earned []string) []Badge {
	var out []Badge
	for _, b := range catalog {
		if b.PointsRequired <= points && !slices.Contains(earned, b.ID) {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b Badge) int {
		switch {
		case a.PointsRequired < b.PointsRequired:
			return -1
		case a.PointsRequired > b.PointsRequired:
			return 1
		}
		return 0
	})
	return out
}

// BadgeStatus describes a badge from one user's point of view
type BadgeStatus string

const (
	BadgeEarned BadgeStatus = "earned"
	BadgeReady  BadgeStatus = "ready"
	BadgeLocked BadgeStatus = "locked"
)

// BadgeProgress is one row of a badge board
type BadgeProgress struct {
	Badge      Badge       `json:"badge"`
	Status     BadgeStatus `json:"status"`
	PointsToGo int64       `json:"points_to_go"`
}

// BadgeBoard is every catalog badge with the user's progress towards it
type BadgeBoard struct {
	Badges      []BadgeProgress `json:"badges"`
	EarnedCount int             `json:"earned_count"`
	Next        *BadgeProgress  `json:"next,omitempty"`
}

// BuildBadgeBoard marks each badge earned, ready to claim (threshold met but
// not recorded) or locked. Next is the cheapest locked badge.
func BuildBadgeBoard(catalog []Badge, points int64, earned []string) BadgeBoard {
	board := BadgeBoard{Badges: make([]BadgeProgress, 0, len(catalog))}
	for _, b := range catalog {
		p := BadgeProgress{Badge: b}
		switch {
		case slices.Contains(earned, b.ID):
			p.Status = BadgeEarned
			board.EarnedCount++
		case b.PointsRequired <= points:
			p.Status = BadgeReady
		default:
			p.Status = BadgeLocked
			p.PointsToGo = b.PointsRequired - points
		}
		board.Badges = append(board.Badges, p)
	}

	for i := range board.Badges {
		p := &board.Badges[i]
		if p.Status != BadgeLocked {
			continue
		}
		if board.Next == nil || p.Badge.PointsRequired < board.Next.Badge.PointsRequired {
			next := *p
			board.Next = &next
		}
	}
	return board
}
