package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/recycle-rewards/internal/domain"
)

// The ledger keeps one list per user and record kind, newest first.

// RecordWasteLog appends a waste log entry and adds its weight to the
// per-type totals
func (s *Store) RecordWasteLog(ctx context.Context, e domain.WasteLogEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling waste log: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, wasteLogsKey(e.UserID), data)
	pipe.HIncrByFloat(ctx, wasteTotalsKey, e.WasteType, e.Weight)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording waste log: %w", err)
	}
	return nil
}

// RecordRedemption appends a redemption
func (s *Store) RecordRedemption(ctx context.Context, r domain.Redemption) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling redemption: %w", err)
	}
	if err := s.client.LPush(ctx, redemptionsKey(r.UserID), data).Err(); err != nil {
		return fmt.Errorf("recording redemption: %w", err)
	}
	return nil
}

// RecordQuizAttempt appends a quiz attempt
func (s *Store) RecordQuizAttempt(ctx context.Context, a domain.QuizAttempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshaling quiz attempt: %w", err)
	}
	if err := s.client.LPush(ctx, quizAttemptsKey(a.UserID), data).Err(); err != nil {
		return fmt.Errorf("recording quiz attempt: %w", err)
	}
	return nil
}

// WasteLogs returns a user's waste logs, newest first. limit <= 0 means all.
func (s *Store) WasteLogs(ctx context.Context, userID string, limit int) ([]domain.WasteLogEntry, error) {
	return readList[domain.WasteLogEntry](ctx, s, wasteLogsKey(userID), limit)
}

// Redemptions returns a user's redemptions, newest first
func (s *Store) Redemptions(ctx context.Context, userID string) ([]domain.Redemption, error) {
	return readList[domain.Redemption](ctx, s, redemptionsKey(userID), 0)
}

// QuizAttempts returns a user's quiz attempts, newest first
func (s *Store) QuizAttempts(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	return readList[domain.QuizAttempt](ctx, s, quizAttemptsKey(userID), 0)
}

// WasteTotals returns the kilograms logged per waste type
func (s *Store) WasteTotals(ctx context.Context) (map[string]float64, error) {
	result, err := s.client.HGetAll(ctx, wasteTotalsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("getting waste totals: %w", err)
	}

	totals := make(map[string]float64, len(result))
	for wasteType, raw := range result {
		kg, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing total for %s: %w", wasteType, err)
		}
		totals[wasteType] = kg
	}
	return totals, nil
}

func readList[T any](ctx context.Context, s *Store, key string, limit int) ([]T, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	raws, err := s.client.LRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("unmarshaling %s entry: %w", key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
