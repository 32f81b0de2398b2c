package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/recycle-rewards/internal/catalog"
	"github.com/recycle-rewards/internal/config"
	"github.com/recycle-rewards/internal/domain"
	"github.com/recycle-rewards/internal/handler"
	"github.com/recycle-rewards/internal/kafka"
	"github.com/recycle-rewards/internal/memory"
	"github.com/recycle-rewards/internal/metrics"
	"github.com/recycle-rewards/internal/postgres"
	"github.com/recycle-rewards/internal/redis"
	"github.com/recycle-rewards/internal/service"
	"github.com/recycle-rewards/internal/websocket"
	"github.com/recycle-rewards/internal/worker"
)

// hotStore is what every hot backend provides
type hotStore interface {
	service.UserStore
	service.SessionStore
	service.Board
	service.Ledger
	worker.Source
	handler.Pinger
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	// Load configuration
	cfg, cfgErr := config.Load(*configPath)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)
	if cfgErr != nil {
		logger.Warn("failed to load config file, using defaults", "error", cfgErr)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	var hot hotStore
	switch cfg.Storage.Driver {
	case config.DriverRedis:
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		redisStore, err := redis.NewStore(&cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer redisStore.Close()
		hot = redisStore
		logger.Info("connected to Redis")
	default:
		hot = memory.NewStore()
		logger.Info("using in-memory store")
	}

	stores := service.Stores{Users: hot, Sessions: hot, Board: hot, Ledger: hot}

	var (
		postgresRepo *postgres.Repository
		syncWorker   *worker.SyncWorker
	)
	if cfg.Postgres.Enabled {
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		postgresRepo, err = postgres.NewRepository(&cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer postgresRepo.Close()
		logger.Info("connected to PostgreSQL")

		// Run database migrations
		if err := postgresRepo.RunMigrations(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		stores.Ledger = postgresRepo

		syncWorker = worker.NewSyncWorker(hot, postgresRepo, &cfg.Sync, logger)

		// Restore the hot store on startup (recovery)
		if err := syncWorker.SyncAllFromDatabase(ctx); err != nil {
			logger.Warn("failed to restore from database on startup", "error", err)
		}
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	rewardsService := service.NewRewardsService(stores, cat, service.Options{
		Leaderboard: cfg.Leaderboard,
		Rules:       cfg.Rules,
		Session:     cfg.Session,
	}, logger)
	rewardsService.SetHub(wsHub)
	wsHub.SetSnapshot(func(ctx context.Context, f domain.KindFilter) ([]domain.LeaderboardEntry, error) {
		return rewardsService.Leaderboard(ctx, string(f), 0)
	})

	if cfg.Leaderboard.Seed {
		if err := rewardsService.SeedLeaderboard(ctx); err != nil {
			logger.Warn("failed to seed leaderboard", "error", err)
		}
	}

	httpHandler := handler.NewHandler(rewardsService, wsHub, logger).
		WithBackend("store", hot)
	if postgresRepo != nil {
		httpHandler.WithBackend("postgres", postgresRepo)
	}

	if cfg.Metrics.Enabled {
		m := metrics.New()
		rewardsService.SetRecorder(m)
		httpHandler.WithMetrics(m, cfg.Metrics.Path)
	}

	if cfg.RateLimit.Enabled {
		limiter := handler.NewRateLimiter(cfg.RateLimit, logger)
		go limiter.Run(ctx)
		httpHandler.WithRateLimiter(limiter)
	}

	// Start sync worker
	if syncWorker != nil && cfg.Sync.Enabled {
		if err := syncWorker.Start(ctx); err != nil {
			return fmt.Errorf("starting sync worker: %w", err)
		}
	}

	// Initialize Kafka consumer for collection point weigh-ins
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, rewardsService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else if err := kafkaConsumer.Start(); err != nil {
			logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
			kafkaConsumer = nil
		} else {
			logger.Info("Kafka consumer started successfully")
		}
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop sync worker
	if syncWorker != nil {
		if err := syncWorker.Stop(); err != nil {
			logger.Error("failed to stop sync worker", "error", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
