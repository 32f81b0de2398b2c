// Package worker mirrors the hot store into PostgreSQL.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/recycle-rewards/internal/config"
	"github.com/recycle-rewards/internal/domain"
)

// Source is the hot store read by a sync cycle and filled on restore.
// Restores only insert records the store does not hold: a live record is
// always at least as new as the mirror.
type Source interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	Participants(ctx context.Context) ([]domain.LeaderboardEntry, error)
	RestoreUsers(ctx context.Context, users []*domain.User) (int, error)
	RestoreParticipants(ctx context.Context, entries []domain.LeaderboardEntry) (int, error)
}

// Mirror is the durable copy
type Mirror interface {
	UpsertUsers(ctx context.Context, users []*domain.User) error
	UpsertParticipants(ctx context.Context, entries []domain.LeaderboardEntry) error
	LoadUsers(ctx context.Context) ([]*domain.User, error)
	LoadParticipants(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// SyncWorker handles periodic synchronization between the hot store and PostgreSQL
type SyncWorker struct {
	source  Source
	mirror  Mirror
	config  *config.SyncConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(source Source, mirror Mirror, cfg *config.SyncConfig, logger *slog.Logger) *SyncWorker {
	return &SyncWorker{
		source: source,
		mirror: mirror,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background sync process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop runs a final cycle and stops the background sync process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			// Flush what changed since the last tick
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			w.RunOnce(flushCtx)
			cancel()
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single sync cycle
func (w *SyncWorker) RunOnce(ctx context.Context) {
	startTime := time.Now()

	users, participants, err := w.SyncToDatabase(ctx)
	if err != nil {
		w.logger.Error("sync cycle failed", "error", err)
		return
	}

	w.logger.Info("sync cycle completed",
		"duration", time.Since(startTime),
		"users", users,
		"participants", participants,
	)
}

// SyncToDatabase copies every user and participant to PostgreSQL in batches
func (w *SyncWorker) SyncToDatabase(ctx context.Context) (int, int, error) {
	users, err := w.source.ListUsers(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("listing users: %w", err)
	}
	for _, chunk := range chunks(users, w.batchSize()) {
		if err := w.mirror.UpsertUsers(ctx, chunk); err != nil {
			return 0, 0, fmt.Errorf("upserting users: %w", err)
		}
	}

	// Users first, participants reference them by id
	participants, err := w.source.Participants(ctx)
	if err != nil {
		return len(users), 0, fmt.Errorf("listing participants: %w", err)
	}
	for _, chunk := range chunks(participants, w.batchSize()) {
		if err := w.mirror.UpsertParticipants(ctx, chunk); err != nil {
			return len(users), 0, fmt.Errorf("upserting participants: %w", err)
		}
	}

	return len(users), len(participants), nil
}

// SyncAllFromDatabase restores the hot store from PostgreSQL, filling in
// only what the hot store lost. This is useful for recovery or initialization.
func (w *SyncWorker) SyncAllFromDatabase(ctx context.Context) error {
	w.logger.Info("restoring hot store from database")

	users, err := w.mirror.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("loading users: %w", err)
	}
	restoredUsers, err := w.source.RestoreUsers(ctx, users)
	if err != nil {
		return fmt.Errorf("restoring users: %w", err)
	}

	participants, err := w.mirror.LoadParticipants(ctx)
	if err != nil {
		return fmt.Errorf("loading participants: %w", err)
	}
	restoredParticipants, err := w.source.RestoreParticipants(ctx, participants)
	if err != nil {
		return fmt.Errorf("restoring participants: %w", err)
	}

	w.logger.Info("restored hot store from database",
		"users", restoredUsers,
		"users_kept", len(users)-restoredUsers,
		"participants", restoredParticipants,
		"participants_kept", len(participants)-restoredParticipants,
	)
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *SyncWorker) batchSize() int {
	if w.config.BatchSize <= 0 {
		return 1000
	}
	return w.config.BatchSize
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
