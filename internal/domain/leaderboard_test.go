package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankEntries_All(t *testing.T) {
	ranked := RankEntries(SeedParticipants(), KindAll)

	require.Len(t, ranked, 10)
	for i, e := range ranked {
		assert.Equal(t, int64(i+1), e.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Points, e.Points)
		}
	}
	assert.Equal(t, "Green Valley Primary School", ranked[0].Name)
}

func TestRankEntries_FilterIsDense(t *testing.T) {
	for _, f := range []KindFilter{KindFilter(KindIndividual), KindFilter(KindFamily), KindFilter(KindSchool)} {
		ranked := RankEntries(SeedParticipants(), f)
		require.NotEmpty(t, ranked)
		for i, e := range ranked {
			assert.Equal(t, ParticipantKind(f), e.Type)
			assert.Equal(t, int64(i+1), e.Rank)
		}
	}
	assert.Len(t, RankEntries(SeedParticipants(), KindFilter(KindIndividual)), 4)
}

func TestRankEntries_TiesKeepInputOrder(t *testing.T) {
	entries := []LeaderboardEntry{
		{ID: "a", Points: 100, Type: KindFamily},
		{ID: "b", Points: 200, Type: KindFamily},
		{ID: "c", Points: 100, Type: KindFamily},
	}

	ranked := RankEntries(entries, KindAll)

	assert.Equal(t, []string{"b", "a", "c"}, ids(ranked))
	assert.Equal(t, []int64{1, 2, 3}, ranks(ranked))
}

func TestRankEntries_Idempotent(t *testing.T) {
	once := RankEntries(SeedParticipants(), KindAll)
	twice := RankEntries(once, KindAll)
	assert.Equal(t, once, twice)
}

func TestRankEntries_DoesNotMutateInput(t *testing.T) {
	entries := SeedParticipants()
	before := SeedParticipants()

	RankEntries(entries, KindFilter(KindSchool))

	assert.Equal(t, before, entries)
}

func TestRankOf(t *testing.T) {
	entries := SeedParticipants()
	assert.Equal(t, int64(3), RankOf(entries, KindAll, "seed-emma"))
	assert.Equal(t, int64(1), RankOf(entries, KindFilter(KindIndividual), "seed-emma"))
	assert.Equal(t, int64(0), RankOf(entries, KindAll, "missing"))
}

func TestParseKindFilter(t *testing.T) {
	f, err := ParseKindFilter("")
	require.NoError(t, err)
	assert.Equal(t, KindAll, f)

	f, err = ParseKindFilter("school")
	require.NoError(t, err)
	assert.True(t, f.Matches(KindSchool))
	assert.False(t, f.Matches(KindFamily))

	_, err = ParseKindFilter("teachers")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestKindCounts(t *testing.T) {
	counts := KindCounts(SeedParticipants())
	assert.Equal(t, 10, counts[KindAll])
	assert.Equal(t, 4, counts[KindFilter(KindIndividual)])
	assert.Equal(t, 3, counts[KindFilter(KindFamily)])
	assert.Equal(t, 3, counts[KindFilter(KindSchool)])
}

func ids(entries []LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func ranks(entries []LeaderboardEntry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.Rank
	}
	return out
}
