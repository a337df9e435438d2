// Package main is the entry point for the trust subsystem's background
// worker. The worker owns the periodic maintenance that keeps the follow
// graph and the reputation profiles coherent:
//   - counter reconciliation: recounts edges against the denormalized
//     follower/following counters and repairs drift
//   - audit mirroring: replays accepted mutations to the chain ledger
//     through the event bus recorder
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/config"
	"github.com/OmeoneChain/omeonechain-sub016/internal/application/command"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/reputation"
	"github.com/OmeoneChain/omeonechain-sub016/internal/infrastructure/chain"
	"github.com/OmeoneChain/omeonechain-sub016/internal/infrastructure/messaging"
	"github.com/OmeoneChain/omeonechain-sub016/internal/infrastructure/persistence/postgres"
	"github.com/OmeoneChain/omeonechain-sub016/internal/infrastructure/persistence/redis"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/circuitbreaker"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// Configuration and logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting trust worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	log.Info("checking database migrations")
	if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var invalidator command.TrustCacheInvalidator = command.NoopInvalidator{}

	if !cfg.Redis.Disabled {
		log.Info("connecting to redis")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", logger.Err(err))
		} else {
			defer cache.Close()
			invalidator = redis.NewInvalidator(
				redis.NewProfileCache(cache, cfg.Redis.ProfileTTL),
				redis.NewTrustWeightCache(cache, cfg.Redis.TrustWeightTTL),
			)
			log.Info("redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Event bus and chain recorder
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus")
		_ = bus.Close()
	}()

	if !cfg.Chain.Disabled {
		var gateway chain.Gateway
		if cfg.Chain.Endpoint == "" {
			gateway = chain.NewLocalLedger()
			log.Info("using local audit ledger")
		} else {
			gateway = chain.NewHTTPGateway(chain.HTTPGatewayConfig{
				Endpoint:       cfg.Chain.Endpoint,
				RequestTimeout: cfg.Chain.RequestTimeout,
			})
			log.Info("using remote audit ledger", logger.String("endpoint", cfg.Chain.Endpoint))
		}

		recorder := chain.NewRecorder(chain.RecorderConfig{
			Gateway: gateway,
			Bus:     bus,
			Logger:  log,
		})
		recorder.Register(bus)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Repositories and engine
	// ─────────────────────────────────────────────────────────────────────────
	profileRepo := postgres.NewProfileRepository(dbConn)
	graphRepo := postgres.NewGraphRepository(dbConn)
	guardedStore := postgres.NewGuardedGraphStore(graphRepo, func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state change",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	engine := reputation.NewEngine(guardedStore, profileRepo, profileRepo, bus, reputation.EngineConfig{
		DirectFollowWeight:    cfg.Trust.DirectFollowWeight,
		SecondaryFollowWeight: cfg.Trust.SecondaryFollowerWeight,
		Resolver: graph.ResolverConfig{
			MaxDepth:  cfg.Trust.MaxSocialDistance,
			FanOutCap: cfg.Trust.FanOutCap,
		},
	})

	reconciler := command.NewReconcileCountersHandler(engine, guardedStore, profileRepo, invalidator, log)

	// ─────────────────────────────────────────────────────────────────────────
	// Reconciliation loop and shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	if !cfg.Reconciler.Enabled {
		log.Info("reconciler disabled, worker idling")
		sig := <-sigCh
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
		return nil
	}

	log.Info("reconciler running",
		logger.Duration("interval", cfg.Reconciler.Interval),
		logger.Int("batch_size", cfg.Reconciler.BatchSize),
	)

	ticker := time.NewTicker(cfg.Reconciler.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runReconcilePass(ctx, reconciler, cfg, log)

		case sig := <-sigCh:
			log.Info("received shutdown signal", logger.String("signal", sig.String()))
			log.Info("shutdown completed")
			return nil

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runReconcilePass executes one bounded reconciliation pass.
func runReconcilePass(ctx context.Context, reconciler *command.ReconcileCountersHandler, cfg *config.Config, log *logger.Logger) {
	passCtx, cancel := context.WithTimeout(ctx, cfg.Reconciler.PassTimeout)
	defer cancel()

	result, err := reconciler.Handle(passCtx, command.ReconcileCountersCommand{
		BatchSize: cfg.Reconciler.BatchSize,
	})
	if err != nil {
		log.Error("reconciliation pass failed", logger.Err(err))
		return
	}

	if result.Repaired > 0 {
		log.Warn("reconciliation repaired drifted counters",
			logger.Int("repaired", result.Repaired),
			logger.Int("checked", result.Checked),
		)
	}
}

// setupLogger builds the worker logger from observability settings.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.AddCaller = cfg.App.Debug
	return logger.New(opts)
}
