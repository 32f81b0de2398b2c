package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/recycle-rewards/internal/domain"
)

// UpsertUsers mirrors users in one batch
func (r *Repository) UpsertUsers(ctx context.Context, users []*domain.User) error {
	if len(users) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO users (id, email, name, role, points, badges, completed_quizzes,
			school_name, parent_email, password_hash, created_at, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (id)
		DO UPDATE SET email = $2, name = $3, role = $4, points = $5, badges = $6,
			completed_quizzes = $7, school_name = $8, parent_email = $9,
			password_hash = $10, synced_at = NOW()
	`
	for _, u := range users {
		batch.Queue(query,
			u.ID,
			u.Email,
			u.Name,
			string(u.Role),
			u.Points,
			nonNil(u.Badges),
			nonNil(u.CompletedQuizzes),
			u.SchoolName,
			u.ParentEmail,
			u.PasswordHash,
			u.CreatedAt,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range users {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch upserting users: %w", err)
		}
	}
	return nil
}

// LoadUsers returns every mirrored user ordered by creation time
func (r *Repository) LoadUsers(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, email, name, role, points, badges, completed_quizzes,
			school_name, parent_email, password_hash, created_at
		FROM users
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		var role string
		err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.Name,
			&role,
			&u.Points,
			&u.Badges,
			&u.CompletedQuizzes,
			&u.SchoolName,
			&u.ParentEmail,
			&u.PasswordHash,
			&u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		if u.Role, err = domain.ParseRole(role); err != nil {
			r.logger.Warn("skipping user with unknown role", "user_id", u.ID, "role", role)
			continue
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// UpsertParticipants mirrors leaderboard participants in one batch. The
// join sequence of known participants is kept.
func (r *Repository) UpsertParticipants(ctx context.Context, entries []domain.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO participants (id, name, type, points, total_waste, synced_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id)
		DO UPDATE SET name = $2, type = $3, points = $4, total_waste = $5, synced_at = NOW()
	`
	for _, e := range entries {
		batch.Queue(query, e.ID, e.Name, string(e.Type), e.Points, e.TotalWaste)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch upserting participants: %w", err)
		}
	}
	return nil
}

// LoadParticipants returns mirrored participants in join order
func (r *Repository) LoadParticipants(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	query := `SELECT id, name, type, points, total_waste FROM participants ORDER BY seq`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("loading participants: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.Name, &kind, &e.Points, &e.TotalWaste); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		e.Type = domain.ParticipantKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
