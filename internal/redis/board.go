package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/recycle-rewards/internal/domain"
)

// Participants are kept in a sorted set scored by join sequence, so a
// ZRANGE returns them in join order. Their fields live in one hash each.

// UpsertParticipant adds a participant with its points, or updates the name
// and kind of a known one.
func (s *Store) UpsertParticipant(ctx context.Context, e domain.LeaderboardEntry) error {
	key := participantKey(e.ID)

	_, err := s.client.ZScore(ctx, participantsKey, e.ID).Result()
	if err == nil {
		if err := s.client.HSet(ctx, key, "name", e.Name, "type", string(e.Type)).Err(); err != nil {
			return fmt.Errorf("updating participant: %w", err)
		}
		return nil
	}
	if err != redis.Nil {
		return fmt.Errorf("checking participant: %w", err)
	}

	seq, err := s.client.Incr(ctx, joinSeqKey).Result()
	if err != nil {
		return fmt.Errorf("getting join sequence: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "id", e.ID, "name", e.Name, "type", string(e.Type))
	pipe.HSetNX(ctx, key, "points", e.Points)
	pipe.HSetNX(ctx, key, "total_waste", strconv.FormatFloat(e.TotalWaste, 'f', -1, 64))
	pipe.ZAddNX(ctx, participantsKey, redis.Z{Score: float64(seq), Member: e.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("adding participant: %w", err)
	}
	return nil
}

// AddContribution credits points and kilograms to a participant
func (s *Store) AddContribution(ctx context.Context, id string, points int64, wasteKg float64) error {
	if _, err := s.client.ZScore(ctx, participantsKey, id).Result(); err != nil {
		if err == redis.Nil {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("checking participant: %w", err)
	}

	key := participantKey(id)
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, key, "points", points)
	if wasteKg != 0 {
		pipe.HIncrByFloat(ctx, key, "total_waste", wasteKg)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("adding contribution: %w", err)
	}
	return nil
}

// Participants returns all participants in join order
func (s *Store) Participants(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	ids, err := s.client.ZRange(ctx, participantsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("getting participants: %w", err)
	}

	// Use pipeline to fetch every participant hash in one round trip
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, participantKey(id))
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("getting participant fields: %w", err)
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			s.logger.Warn("participant without fields", "participant_id", ids[i])
			continue
		}
		points, _ := strconv.ParseInt(fields["points"], 10, 64)
		totalWaste, _ := strconv.ParseFloat(fields["total_waste"], 64)
		entries = append(entries, domain.LeaderboardEntry{
			ID:         ids[i],
			Name:       fields["name"],
			Type:       domain.ParticipantKind(fields["type"]),
			Points:     points,
			TotalWaste: totalWaste,
		})
	}
	return entries, nil
}

// RestoreParticipants appends the participants the board does not know
// yet, keeping the given join order. Known participants are left alone.
func (s *Store) RestoreParticipants(ctx context.Context, entries []domain.LeaderboardEntry) (int, error) {
	n := 0
	for _, e := range entries {
		_, err := s.client.ZScore(ctx, participantsKey, e.ID).Result()
		if err == nil {
			continue
		}
		if err != redis.Nil {
			return n, fmt.Errorf("checking participant: %w", err)
		}

		seq, err := s.client.Incr(ctx, joinSeqKey).Result()
		if err != nil {
			return n, fmt.Errorf("getting join sequence: %w", err)
		}
		pipe := s.client.TxPipeline()
		pipe.HSet(ctx, participantKey(e.ID),
			"id", e.ID,
			"name", e.Name,
			"type", string(e.Type),
			"points", e.Points,
			"total_waste", strconv.FormatFloat(e.TotalWaste, 'f', -1, 64),
		)
		pipe.ZAddNX(ctx, participantsKey, redis.Z{Score: float64(seq), Member: e.ID})
		if _, err := pipe.Exec(ctx); err != nil {
			return n, fmt.Errorf("restoring participant %s: %w", e.ID, err)
		}
		n++
	}
	return n, nil
}
