package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/hiresense/internal/analysis"
	"github.com/terra-clan/hiresense/internal/api"
	"github.com/terra-clan/hiresense/internal/cleanup"
	"github.com/terra-clan/hiresense/internal/config"
	"github.com/terra-clan/hiresense/internal/events"
	"github.com/terra-clan/hiresense/internal/history"
	"github.com/terra-clan/hiresense/internal/reports"
	"github.com/terra-clan/hiresense/internal/roles"
	"github.com/terra-clan/hiresense/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if logLevel == "" {
		setupLogging(cfg.SlogLevel())
	}

	slog.Info("starting hiresense",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"history", cfg.History.Backend,
		"reports", cfg.Reports.Enabled,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	gen, err := newGenerator(initCtx, cfg.Gemini)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}

	engine, err := newEngine(cfg, gen)
	if err != nil {
		return err
	}

	insights, err := roles.LoadInsights(cfg.Roles.InsightsFile)
	if err != nil {
		slog.Warn("failed to load role insights", "file", cfg.Roles.InsightsFile, "error", err)
		insights = map[string]any{}
	}

	codeService, err := newCodeService(cfg, gen)
	if err != nil {
		return err
	}

	// Initialize service registry
	registry := services.NewRegistry()

	repo, err := openHistory(initCtx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	registry.Register("history", services.CheckFunc(repo.Ping))

	var store reports.Store
	if cfg.Reports.Enabled {
		store, err = openReports(initCtx, cfg)
		if err != nil {
			return err
		}
		registry.Register("reports", services.CheckFunc(store.Ping))
	}

	stream := events.NewBroadcaster()
	defer stream.Close()
	publishers := events.Multi{stream}

	if cfg.AMQP.URL != "" {
		broker, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return fmt.Errorf("failed to connect to amqp: %w", err)
		}
		defer broker.Close()
		publishers = append(publishers, broker)
		registry.Register("amqp", broker)
		slog.Info("amqp publisher connected", "exchange", cfg.AMQP.Exchange)
	}

	svc := analysis.NewService(engine, repo, store, publishers)
	slog.Info("analysis service ready",
		"reports", svc.ReportsEnabled(),
		"health_checks", registry.List(),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	if store != nil {
		cleanup.NewCleaner(store, cfg.Reports.Retention, cfg.Cleanup.Interval).Start(ctx)
	}

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Deps{
		Analysis: svc,
		Code:     codeService,
		Insights: insights,
		Health:   registry,
		Stream:   stream,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()
	// Ends open history streams, Shutdown does not wait for hijacked conns
	stream.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("hiresense stopped")
	return nil
}

func openHistory(ctx context.Context, cfg *config.Config) (history.Repository, error) {
	switch cfg.History.Backend {
	case config.HistoryRedis:
		repo, err := history.NewRedisStore(ctx, history.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			Capacity: cfg.History.Capacity,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("redis history connected", "address", cfg.Redis.Address)
		return repo, nil

	case config.HistoryPostgres:
		repo, err := history.NewPostgresStore(ctx, history.PostgresConfig{
			DSN:      cfg.Database.DSN,
			Capacity: cfg.History.Capacity,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create database repository: %w", err)
		}

		slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
		if err := history.RunMigrations(ctx, repo.Pool(), cfg.Database.MigrationsDir); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		slog.Info("database connected successfully")
		return repo, nil

	default:
		repo, err := history.NewFileStore(cfg.History.File, cfg.History.Capacity)
		if err != nil {
			return nil, fmt.Errorf("failed to open history file: %w", err)
		}
		return repo, nil
	}
}

func openReports(ctx context.Context, cfg *config.Config) (reports.Store, error) {
	if cfg.Reports.Backend == config.ReportsS3 {
		store, err := reports.NewS3Store(ctx, reports.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 report store: %w", err)
		}
		return store, nil
	}

	store, err := reports.NewDiskStore(cfg.Reports.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}
	return store, nil
}
