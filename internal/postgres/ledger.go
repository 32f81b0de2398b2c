package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/recycle-rewards/internal/domain"
)

// RecordWasteLog inserts a waste log entry
func (r *Repository) RecordWasteLog(ctx context.Context, e domain.WasteLogEntry) error {
	query := `
		INSERT INTO waste_logs (id, user_id, waste_type, weight, points_earned, impact_message, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.WasteType,
		e.Weight,
		e.PointsEarned,
		e.ImpactMessage,
		e.Source,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording waste log: %w", err)
	}
	return nil
}

// RecordRedemption inserts a redemption
func (r *Repository) RecordRedemption(ctx context.Context, red domain.Redemption) error {
	query := `
		INSERT INTO redemptions (id, user_id, reward_id, points_spent, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		red.ID,
		red.UserID,
		red.RewardID,
		red.PointsSpent,
		red.BalanceAfter,
		red.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording redemption: %w", err)
	}
	return nil
}

// RecordQuizAttempt inserts a quiz attempt
func (r *Repository) RecordQuizAttempt(ctx context.Context, a domain.QuizAttempt) error {
	query := `
		INSERT INTO quiz_attempts (id, user_id, question_id, selected, correct, points_awarded, points_credited, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.UserID,
		a.QuestionID,
		a.Selected,
		a.Correct,
		a.PointsAwarded,
		a.PointsCredited,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording quiz attempt: %w", err)
	}
	return nil
}

// WasteLogs returns a user's waste logs, newest first. limit <= 0 means all.
func (r *Repository) WasteLogs(ctx context.Context, userID string, limit int) ([]domain.WasteLogEntry, error) {
	query := `
		SELECT id, user_id, waste_type, weight, points_earned, impact_message, source, created_at
		FROM waste_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	// LIMIT NULL returns every row
	var lim *int
	if limit > 0 {
		lim = &limit
	}

	rows, err := r.pool.Query(ctx, query, userID, lim)
	if err != nil {
		return nil, fmt.Errorf("getting waste logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.WasteLogEntry{}
	for rows.Next() {
		var e domain.WasteLogEntry
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.WasteType,
			&e.Weight,
			&e.PointsEarned,
			&e.ImpactMessage,
			&e.Source,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning waste log: %w", err)
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

// WasteTotals returns the kilograms logged per waste type
func (r *Repository) WasteTotals(ctx context.Context) (map[string]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT waste_type, SUM(weight) FROM waste_logs GROUP BY waste_type`)
	if err != nil {
		return nil, fmt.Errorf("getting waste totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var wasteType string
		var kg float64
		if err := rows.Scan(&wasteType, &kg); err != nil {
			return nil, fmt.Errorf("scanning waste total: %w", err)
		}
		totals[wasteType] = kg
	}
	return totals, rows.Err()
}

// Redemptions returns a user's redemptions, newest first
func (r *Repository) Redemptions(ctx context.Context, userID string) ([]domain.Redemption, error) {
	query := `
		SELECT id, user_id, reward_id, points_spent, balance_after, created_at
		FROM redemptions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("getting redemptions: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Redemption])
	if err != nil {
		return nil, fmt.Errorf("scanning redemptions: %w", err)
	}
	return out, nil
}

// QuizAttempts returns a user's quiz attempts, newest first
func (r *Repository) QuizAttempts(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	query := `
		SELECT id, user_id, question_id, selected, correct, points_awarded, points_credited, created_at
		FROM quiz_attempts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("getting quiz attempts: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.QuizAttempt])
	if err != nil {
		return nil, fmt.Errorf("scanning quiz attempts: %w", err)
	}
	return out, nil
}
