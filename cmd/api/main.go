package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/a2aregistry/backend/internal/config"
	"github.com/a2aregistry/backend/internal/probe"
	"github.com/a2aregistry/backend/internal/registry"
	"github.com/a2aregistry/backend/internal/router"
	"github.com/a2aregistry/backend/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("REGISTRY_CONFIG"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var (
		st     store.Store
		verify registry.VerifyFunc
	)
	if cfg.DatabaseURL == "" {
		slog.Warn("No DATABASE_URL configured; using in-memory store (records are lost on restart)")
		st = store.NewMemory()
	} else {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("Unable to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running", "error", err)
			os.Exit(1)
		}
		slog.Info("Connected to PostgreSQL database successfully!")

		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("Failed to ensure database schema", "error", err)
			os.Exit(1)
		}
		st = pg

		if cfg.VerifyEndpoints {
			verify, err = startVerification(ctx, pool, pg)
			if err != nil {
				slog.Error("Failed to start endpoint verification", "error", err)
				os.Exit(1)
			}
		}
	}

	svc := registry.NewService(st, verify, logger)
	handler := registry.NewHandler(svc, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(router.New(handler))

	slog.Info("Starting HTTP server", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}

// startVerification applies River migrations, starts the verification
// worker, and returns the enqueue func the registry service calls on
// each successful registration.
func startVerification(ctx context.Context, pool *pgxpool.Pool, st store.Store) (registry.VerifyFunc, error) {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return nil, err
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, err
	}
	slog.Info("River migrations applied")

	worker, err := probe.NewVerifyEndpointWorker(st, slog.Default())
	if err != nil {
		return nil, err
	}
	workers := river.NewWorkers()
	river.AddWorker(workers, worker)

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, err
	}

	riverCtx := context.WithoutCancel(ctx)
	go func() {
		if err := riverClient.Start(riverCtx); err != nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	return func(ctx context.Context, agentID, url string) error {
		_, err := riverClient.Insert(ctx, probe.VerifyEndpointArgs{AgentID: agentID, URL: url}, nil)
		return err
	}, nil
}
