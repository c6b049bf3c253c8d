package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-bookshop/internal/config"
	"github.com/noah-isme/backend-bookshop/internal/lock"
	"github.com/noah-isme/backend-bookshop/internal/obs"
	"github.com/noah-isme/backend-bookshop/internal/order"
	"github.com/noah-isme/backend-bookshop/internal/repo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "bookshop")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	rdb := mustInitRedis(ctx, redisOpts, logger)
	defer rdb.Close()

	orderService := order.NewService(order.ServiceConfig{
		Orders: repo.OrdersRepo{DB: pool},
		Promos: repo.PromotionsRepo{DB: pool},
		Store:  order.PGPricingStore{Pool: pool},
		Locker: lock.Locker{R: rdb},
		Logger: logger,
	})

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB},
		asynq.Config{
			Concurrency: envInt("WORKER_CONCURRENCY", 5),
			Logger:      asynqLogger{logger},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(order.TypeReprice, orderService.HandleRepriceTask)

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	logger.Info().Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

func mustInitRedis(ctx context.Context, opts *redis.Options, logger zerolog.Logger) *redis.Client {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Warn().Err(err).Msg("instrument redis tracing")
	}
	return client
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

// asynqLogger adapts zerolog to asynq's logger interface.
type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...any) { a.l.Debug().Msgf("%v", args) }
func (a asynqLogger) Info(args ...any)  { a.l.Info().Msgf("%v", args) }
func (a asynqLogger) Warn(args ...any)  { a.l.Warn().Msgf("%v", args) }
func (a asynqLogger) Error(args ...any) { a.l.Error().Msgf("%v", args) }
func (a asynqLogger) Fatal(args ...any) { a.l.Fatal().Msgf("%v", args) }

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
