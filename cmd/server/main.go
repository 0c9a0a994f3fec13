package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/pointledger/internal/adapter/http"
	"github.com/iho/pointledger/internal/adapter/http/handler"
	"github.com/iho/pointledger/internal/adapter/http/middleware"
	"github.com/iho/pointledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/pointledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/pointledger/internal/adapter/repository/redis"
	"github.com/iho/pointledger/internal/infrastructure/config"
	"github.com/iho/pointledger/internal/infrastructure/idgen"
	"github.com/iho/pointledger/internal/infrastructure/logger"
	"github.com/iho/pointledger/internal/infrastructure/metrics"
	"github.com/iho/pointledger/internal/infrastructure/postgres"
	"github.com/iho/pointledger/internal/infrastructure/redis"
	"github.com/iho/pointledger/internal/infrastructure/seed"
	"github.com/iho/pointledger/internal/usecase"
)

const limiterIdleTimeout = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// stores bundles the storage backend selected by configuration.
type stores struct {
	balances  usecase.BalanceStore
	histories usecase.HistoryStore
	checks    map[string]handler.Pinger
	closers   []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := seedAccounts(ctx, cfg, st.balances, log); err != nil {
		return err
	}

	var idempotencyStore usecase.IdempotencyStore
	if cfg.IdempotencyEnabled() {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, 5*time.Second)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		st.checks["redis"] = redis.Pinger(redisClient)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	rateLimiter := newRateLimiter(cfg, m)

	router := buildRouter(cfg, log, st, m, idempotencyStore, rateLimiter)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	if rateLimiter != nil {
		go cleanupLimiters(ctx, rateLimiter, log)
	}

	errCh := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info().
			Str("port", cfg.HTTPPort).
			Str("store_backend", cfg.StoreBackend).
			Bool("auto_provision", cfg.AutoProvision).
			Int64("max_balance", cfg.MaxBalance).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// openStores connects the configured balance and history stores.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		retrier := postgresRepo.NewRetrier(log)

		return &stores{
			balances:  postgresRepo.NewBalanceRepository(pool, retrier),
			histories: postgresRepo.NewHistoryRepository(pool, retrier),
			checks:    map[string]handler.Pinger{"postgres": pool.Ping},
			closers:   []func(){pool.Close},
		}, nil

	case config.BackendMemory:
		return &stores{
			balances:  memory.NewBalanceRepository(),
			histories: memory.NewHistoryRepository(),
			checks:    map[string]handler.Pinger{},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func seedAccounts(ctx context.Context, cfg *config.Config, balances usecase.BalanceStore, log zerolog.Logger) error {
	if cfg.SeedFile == "" {
		return nil
	}

	accounts, err := seed.Load(cfg.SeedFile, cfg.MaxBalance)
	if err != nil {
		return fmt.Errorf("load seed file: %w", err)
	}

	created, err := seed.Apply(ctx, balances, accounts, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("apply seed file: %w", err)
	}

	log.Info().
		Str("file", cfg.SeedFile).
		Int("accounts", len(accounts)).
		Int("created", created).
		Msg("seeded accounts")
	return nil
}

func newRateLimiter(cfg *config.Config, m *metrics.Metrics) *middleware.RateLimiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	return middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithHitCounter(m.RateLimitHits)
}

func buildRouter(
	cfg *config.Config,
	log zerolog.Logger,
	st *stores,
	m *metrics.Metrics,
	idempotencyStore usecase.IdempotencyStore,
	rateLimiter *middleware.RateLimiter,
) http.Handler {
	pointUC := usecase.NewPointUseCase(st.balances, st.histories, idgen.NewULIDGenerator(), usecase.PointConfig{
		Metrics:       m,
		Logger:        &log,
		MaxBalance:    cfg.MaxBalance,
		AutoProvision: cfg.AutoProvision,
	})
	queryUC := usecase.NewQueryUseCase(st.balances, st.histories, cfg.AutoProvision)

	return httpAdapter.NewRouter(httpAdapter.RouterConfig{
		PointHandler:     handler.NewPointHandler(pointUC, queryUC),
		HealthHandler:    handler.NewHealthHandler(st.checks),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		ReplayCounter:    m.IdempotentReplays,
		RateLimiter:      rateLimiter,
		Logger:           log,
	})
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter, log zerolog.Logger) {
	ticker := time.NewTicker(limiterIdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := rl.CleanupLimiters(limiterIdleTimeout); removed > 0 {
				log.Debug().Int("removed", removed).Msg("evicted idle rate limiters")
			}
		}
	}
}
