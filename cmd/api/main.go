package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/saturnino-fabrica-de-software/faceverify/internal/api"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/config"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/database"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/metrics"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/policy"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/ratelimit"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/repository"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/service"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/sweep"
	"github.com/saturnino-fabrica-de-software/faceverify/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting FaceVerify policy API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("counter_backend", cfg.CounterBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		dbName, err := database.DatabaseName(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := database.MigrateUp(ctx, cfg.DatabaseURL, dbName); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		logger.Info("migrations applied")
	}

	poolCfg := database.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	pool, err := database.NewPool(ctx, poolCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	mergePolicy, err := cfg.MergePolicy()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	auditLog := audit.NewSlogLogger(logger)

	strategies := repository.NewStrategyRepository(pool)
	rules := repository.NewRuleRepository(pool)
	profiles := repository.NewProfileRepository(pool)
	operations := repository.NewOperationRepository(pool)
	records := repository.NewVerificationRepository(pool)

	var counter ratelimit.Counter
	var cleaner sweep.CounterCleaner
	switch cfg.CounterBackend {
	case config.CounterBackendRedis:
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func(c *redis.Client) { _ = c.Close() }(client)
		counter = ratelimit.NewRedisCounter(client, cfg.CounterRetention)
	default:
		pg := ratelimit.NewPGCounter(pool, cfg.CounterRetention)
		counter = pg
		cleaner = pg
	}

	resolver := policy.NewResolver(strategies, rules)
	evaluator := policy.NewEvaluator(policy.WithMergePolicy(mergePolicy))

	profileService := service.NewProfileService(profiles).
		WithAudit(auditLog).
		WithMetrics(m).
		WithLogger(logger)
	strategyService := service.NewStrategyService(strategies, rules, resolver).
		WithAudit(auditLog).
		WithLogger(logger)
	operationService := service.NewOperationService(resolver, evaluator, profiles, operations, records, counter).
		WithTimeout(cfg.OperationTimeout).
		WithCASRetries(cfg.CASMaxRetries).
		WithMetrics(m).
		WithAudit(auditLog).
		WithLogger(logger)

	sweepCfg := sweep.DefaultConfig()
	sweepCfg.Interval = cfg.SweepInterval
	sweeper := sweep.NewWorker(profileService, operationService, cleaner, logger, sweepCfg)
	sweeper.Start()
	defer sweeper.Stop()

	router := api.NewRouter(logger, &api.Dependencies{
		Profiles:   profileService,
		Strategies: strategyService,
		Operations: operationService,
		Verifier:   webhook.NewVerifier(cfg.CallbackSecret, cfg.CallbackTolerance),
		DB:         pool,
		Gatherer:   reg,
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownDone := make(chan error, 1)
	go func() { shutdownDone <- router.Shutdown() }()

	select {
	case err := <-shutdownDone:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}
