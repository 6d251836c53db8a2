package main

import (
	"context"
	"cvrp-route-service/internal/adapters/cache"
	"cvrp-route-service/internal/adapters/optimal"
	"cvrp-route-service/internal/adapters/repositories"
	"cvrp-route-service/internal/api"
	"cvrp-route-service/internal/config"
	"cvrp-route-service/internal/platform/db"
	"cvrp-route-service/internal/platform/obs"
	"cvrp-route-service/internal/ports"
	"cvrp-route-service/internal/services"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, redis, LP solvers) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found (using environment variables)")
	}

	cfg, err := config.Load(config.Get("CONFIG_PATH", ""))
	if err != nil {
		fatal("load config", err)
	}
	obs.Setup(cfg.Log(), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Runs go to Postgres when configured, otherwise they live in memory.
	var runs ports.RunRepository = repositories.NewMemoryRunRepository()
	if url := cfg.Storage.DatabaseURL; url != "" {
		conn, err := db.Open(ctx, url)
		if err != nil {
			fatal("open database", err)
		}
		defer conn.Close()
		if err := repositories.InitSchema(ctx, conn); err != nil {
			fatal("init schema", err)
		}
		runs = repositories.NewPostgresRunRepository(conn)
		slog.Info("run store ready", "backend", "postgres")
	}

	engineCfg := cfg.EngineConfig()
	opts := []services.PlannerOption{services.WithRunRepository(runs)}
	if url := cfg.Storage.RedisURL; url != "" {
		client, err := cache.Connect(ctx, url)
		if err != nil {
			fatal("connect redis", err)
		}
		defer client.Close()
		opts = append(opts, services.WithResultCache(cache.NewRedisResultCache(client), cfg.Storage.CacheTTL))
		slog.Info("result cache ready", "backend", "redis", "ttl", cfg.Storage.CacheTTL)
	}

	catalog := optimal.Default()
	if path := cfg.General.OptimalCatalog; path != "" {
		if catalog, err = optimal.Load(path); err != nil {
			fatal("load optimal catalog", err)
		}
	}

	router := api.NewRouter(api.Deps{
		Planner:          services.NewPlanner(engineCfg, opts...),
		Runs:             runs,
		Solvers:          engineCfg.MasterSolvers,
		Catalog:          catalog,
		DefaultAlgorithm: cfg.Algorithm(),
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
	})

	// Write timeout covers a full column generation run.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "err", err)
		}
	}()

	slog.Info("server listening", "addr", srv.Addr, "solvers", len(engineCfg.MasterSolvers))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("serve", err)
	}
}

func fatal(op string, err error) {
	slog.Error(op+" failed", "err", err)
	os.Exit(1)
}
