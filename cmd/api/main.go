package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/pipeline-crm/api/controllers"
	"github.com/angelmondragon/pipeline-crm/api/routes"
	"github.com/angelmondragon/pipeline-crm/internal/session"
	"github.com/angelmondragon/pipeline-crm/internal/snapshots"
	"github.com/angelmondragon/pipeline-crm/internal/workspace"
	"github.com/angelmondragon/pipeline-crm/pkg/config"
	"github.com/angelmondragon/pipeline-crm/pkg/db"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
	"github.com/angelmondragon/pipeline-crm/pkg/metrics"
	"github.com/angelmondragon/pipeline-crm/pkg/migrate"
	"github.com/angelmondragon/pipeline-crm/pkg/redis"
)

const (
	serviceName     = "crm-api"
	shutdownTimeout = 15 * time.Second
	revocationSweep = 10 * time.Minute
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	checks := map[string]controllers.Pinger{"db": dbClient}
	var (
		kv          snapshots.KeyValueStore
		revocations session.Revocations
	)
	if cfg.Redis.Configured() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		checks["redis"] = redisClient
		kv = redisClient
		revocations = session.NewRedisRevocations(redisClient)
	} else {
		logg.Warn(ctx, "redis not configured, token revocations are process-local")
		revocations = session.NewMemoryRevocations(revocationSweep)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storeMetrics := metrics.NewStoreMetrics(reg)

	gate, err := session.NewGate(session.GateParams{Revocations: revocations, Logger: logg})
	if err != nil {
		return err
	}

	persister, err := snapshots.NewPersister(cfg.Snapshots, dbClient.DB(), kv)
	if err != nil {
		return err
	}

	registry, err := workspace.NewRegistry(workspace.Params{
		Persister: persister,
		Logger:    logg,
		Metrics:   storeMetrics,
	})
	if err != nil {
		return err
	}
	registry.Attach(gate)
	defer registry.Close(context.Background())

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":              cfg.App.Env,
		"addr":             addr,
		"instance":         id,
		"snapshot_backend": cfg.Snapshots.Backend,
		"redis_configured": cfg.Redis.Configured(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Checks:     checks,
			Gate:       gate,
			Workspaces: registry,
			Gatherer:   reg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
