package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/config"
	"github.com/orgofarm-labs/backend-orgofarm/internal/events"
	"github.com/orgofarm-labs/backend-orgofarm/internal/loyalty"
	"github.com/orgofarm-labs/backend-orgofarm/internal/obs"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
	"github.com/orgofarm-labs/backend-orgofarm/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	ctx := context.Background()
	pool, queries := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	bus := &events.Bus{Store: queries}
	loyaltySvc := &loyalty.Service{
		Q: queries,
		Policy: loyalty.Policy{
			PointValue:       cfg.LoyaltyPointValue,
			MinRedeemPoints:  cfg.LoyaltyMinRedeemPoints,
			MaxDiscountPct:   cfg.LoyaltyMaxDiscountPct,
			EarnPointsPer100: cfg.LoyaltyEarnPointsPer100,
		},
		Events: bus,
		Log:    logger,
	}

	worker := &tasks.Worker{
		Loyalty:    loyaltySvc,
		Q:          queries,
		Mail:       common.NopEmailSender{},
		AdminEmail: envOrDefault("ALERT_ADMIN_EMAIL", ""),
		Log:        logger,
	}

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	srv := asynq.NewServer(asynqOpt, asynq.Config{
		Concurrency: cfg.AsynqConcurrency,
	})
	mux := asynq.NewServeMux()
	worker.Register(mux)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info().Msg("worker shutting down")
		srv.Shutdown()
	}()

	logger.Info().Int("concurrency", cfg.AsynqConcurrency).Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, *store.Store) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "orgofarm-worker"
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool, store.New(pool)
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
