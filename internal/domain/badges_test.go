package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBadges = []Badge{
	{ID: "welcome", Name: "Welcome", PointsRequired: 0},
	{ID: "five-hundred", Name: "Five Hundred", PointsRequired: 500},
	{ID: "thousand", Name: "Thousand", PointsRequired: 1000},
}

func TestEvaluateBadges_OnlyNewlyCrossed(t *testing.T) {
	u := &User{Points: 450, Badges: []string{"welcome"}}

	got := u.AddPoints(80, testBadges)

	require.Len(t, got, 1)
	assert.Equal(t, "five-hundred", got[0].ID)
	assert.Equal(t, int64(530), u.Points)
	assert.Equal(t, []string{"welcome", "five-hundred"}, u.Badges)
}

func TestEvaluateBadges_MultipleThresholds(t *testing.T) {
	got := EvaluateBadges(testBadges, 1200, nil)

	require.Len(t, got, 3)
	assert.Equal(t, "welcome", got[0].ID)
	assert.Equal(t, "five-hundred", got[1].ID)
	assert.Equal(t, "thousand", got[2].ID)
}

func TestEvaluateBadges_OrderedByThreshold(t *testing.T) {
	unordered := []Badge{testBadges[2], testBadges[0], testBadges[1]}

	got := EvaluateBadges(unordered, 5000, []string{"welcome"})

	require.Len(t, got, 2)
	assert.Equal(t, "five-hundred", got[0].ID)
	assert.Equal(t, "thousand", got[1].ID)
}

func TestBadgesArePermanent(t *testing.T) {
	u := &User{Points: 0}
	u.AddPoints(600, testBadges)
	require.Equal(t, []string{"welcome", "five-hundred"}, u.Badges)

	require.NoError(t, u.Redeem(Reward{ID: "r", PointsCost: 500, Available: true}))
	assert.Equal(t, int64(100), u.Points)

	assert.Empty(t, u.AwardBadges(testBadges))
	assert.Equal(t, []string{"welcome", "five-hundred"}, u.Badges)
}

func TestBadgesMonotonic(t *testing.T) {
	u := &User{}
	prev := []string{}
	for _, credit := range []int64{0, 100, 350, 200, 900, 3000} {
		u.AddPoints(credit, DefaultCatalog().Badges)
		assert.GreaterOrEqual(t, len(u.Badges), len(prev))
		assert.Equal(t, prev, u.Badges[:len(prev)])
		prev = append([]string(nil), u.Badges...)
	}
	assert.Len(t, u.Badges, 4)
}

func TestBuildBadgeBoard(t *testing.T) {
	board := BuildBadgeBoard(testBadges, 600, []string{"welcome"})

	require.Len(t, board.Badges, 3)
	assert.Equal(t, BadgeEarned, board.Badges[0].Status)
	assert.Equal(t, BadgeReady, board.Badges[1].Status)
	assert.Equal(t, BadgeLocked, board.Badges[2].Status)
	assert.Equal(t, int64(400), board.Badges[2].PointsToGo)
	assert.Equal(t, 1, board.EarnedCount)
	require.NotNil(t, board.Next)
	assert.Equal(t, "thousand", board.Next.Badge.ID)
}

func TestBuildBadgeBoard_AllEarned(t *testing.T) {
	board := BuildBadgeBoard(testBadges, 2000, []string{"welcome", "five-hundred", "thousand"})

	assert.Equal(t, 3, board.EarnedCount)
	assert.Nil(t, board.Next)
}
