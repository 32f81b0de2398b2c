// Package redis is the hot store: users, sessions with their wizard state,
// leaderboard participants and the audit ledger live in Redis.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/recycle-rewards/internal/config"
)

const defaultMaxTxRetries = 5

// Store implements the user, session, board and ledger stores on Redis
type Store struct {
	client     *redis.Client
	maxRetries int
	logger     *slog.Logger
}

// NewStore connects to Redis and verifies the connection
func NewStore(cfg *config.RedisConfig, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewStoreWithClient(client, cfg.MaxTxRetries, logger), nil
}

// NewStoreWithClient wraps an existing client
func NewStoreWithClient(client *redis.Client, maxRetries int, logger *slog.Logger) *Store {
	if maxRetries <= 0 {
		maxRetries = defaultMaxTxRetries
	}
	return &Store{
		client:     client,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client
func (s *Store) Client() *redis.Client {
	return s.client
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func userKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func emailKey(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func participantKey(id string) string {
	return fmt.Sprintf("leaderboard:participant:%s", id)
}

func wasteLogsKey(userID string) string {
	return fmt.Sprintf("ledger:waste:%s", userID)
}

func redemptionsKey(userID string) string {
	return fmt.Sprintf("ledger:redemptions:%s", userID)
}

func quizAttemptsKey(userID string) string {
	return fmt.Sprintf("ledger:quiz:%s", userID)
}

const (
	usersKey        = "users"
	participantsKey = "leaderboard:participants"
	joinSeqKey      = "leaderboard:seq"
	wasteTotalsKey  = "stats:waste_by_type"
)
