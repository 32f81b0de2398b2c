package domain

import (
	"fmt"
	"slices"
)

// ParticipantKind is how a participant competes on the leaderboard
type ParticipantKind string

const (
	KindIndividual ParticipantKind = "individual"
	KindFamily     ParticipantKind = "family"
	KindSchool     ParticipantKind = "school"
)

// KindFilter selects which participants a leaderboard shows
type KindFilter string

const KindAll KindFilter = "all"

// ParseKindFilter validates a filter received from outside the process. An
// empty string means all.
func ParseKindFilter(s string) (KindFilter, error) {
	switch f := KindFilter(s); f {
	case "":
		return KindAll, nil
	case KindAll, KindFilter(KindIndividual), KindFilter(KindFamily), KindFilter(KindSchool):
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Matches reports whether kind passes the filter.
func (f KindFilter) Matches(kind ParticipantKind) bool {
	return f == KindAll || f == KindFilter(kind)
}

// LeaderboardEntry represents a single participant in the leaderboard. Rank
// is computed by RankEntries and never stored.
type LeaderboardEntry struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Points     int64           `json:"points"`
	Rank       int64           `json:"rank"`
	Type       ParticipantKind `json:"type"`
	TotalWaste float64         `json:"total_waste"`
}

// RankEntries filters entries by kind, orders them by points descending and
// assigns 1-based ranks. Ties keep their input order. The input is not
// modified.
func RankEntries(entries []LeaderboardEntry, filter KindFilter) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if filter.Matches(e.Type) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b LeaderboardEntry) int {
		switch {
		case a.Points > b.Points:
			return -1
		case a.Points < b.Points:
			return 1
		}
		return 0
	})
	for i := range out {
		out[i].Rank = int64(i + 1)
	}
	return out
}

// RankOf returns the 1-based rank of id within filter, or 0 if it is absent.
func RankOf(entries []LeaderboardEntry, filter KindFilter, id string) int64 {
	for _, e := range RankEntries(entries, filter) {
		if e.ID == id {
			return e.Rank
		}
	}
	return 0
}

// KindCounts returns the number of participants per kind plus "all".
func KindCounts(entries []LeaderboardEntry) map[KindFilter]int {
	counts := map[KindFilter]int{KindAll: len(entries)}
	for _, k := range []ParticipantKind{KindIndividual, KindFamily, KindSchool} {
		counts[KindFilter(k)] = 0
	}
	for _, e := range entries {
		counts[KindFilter(e.Type)]++
	}
	return counts
}

// LeaderboardUpdate is pushed to realtime subscribers after a change
type LeaderboardUpdate struct {
	Filter  KindFilter         `json:"type"`
	Entries []LeaderboardEntry `json:"entries"`
}

// SeedParticipants returns the participants a fresh deployment starts with.
func SeedParticipants() []LeaderboardEntry {
	return []LeaderboardEntry{
		{ID: "seed-green-valley", Name: "Green Valley Primary School", Points: 8520, Type: KindSchool, TotalWaste: 170.4},
		{ID: "seed-johnson", Name: "The Johnson Family", Points: 5280, Type: KindFamily, TotalWaste: 105.6},
		{ID: "seed-emma", Name: "Emma Green", Points: 4150, Type: KindIndividual, TotalWaste: 83.0},
		{ID: "seed-sunrise", Name: "Sunrise Academy", Points: 3890, Type: KindSchool, TotalWaste: 77.8},
		{ID: "seed-williams", Name: "The Williams Family", Points: 3520, Type: KindFamily, TotalWaste: 70.4},
		{ID: "seed-michael", Name: "Michael Eco", Points: 2980, Type: KindIndividual, TotalWaste: 59.6},
		{ID: "seed-hope", Name: "Hope Elementary", Points: 2750, Type: KindSchool, TotalWaste: 55.0},
		{ID: "seed-sarah", Name: "Sarah Planet", Points: 2340, Type: KindIndividual, TotalWaste: 46.8},
		{ID: "seed-brown", Name: "The Brown Family", Points: 2150, Type: KindFamily, TotalWaste: 43.0},
		{ID: "seed-david", Name: "David Nature", Points: 1950, Type: KindIndividual, TotalWaste: 39.0},
	}
}
