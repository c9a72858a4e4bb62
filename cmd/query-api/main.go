// Command query-api serves the read-only endpoints (game decisions, market
// state registry, meta) fronting the same Postgres-backed stores that
// decision-engine writes.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"

	"github.com/xavierbriggs/decision-core/internal/config"
	"github.com/xavierbriggs/decision-core/internal/query"
	"github.com/xavierbriggs/decision-core/internal/sportconfig"
	"github.com/xavierbriggs/decision-core/internal/store"
)

func main() {
	fmt.Println("=== Decision Core Query API ===")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		fmt.Printf("❌ Failed to open postgres: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		fmt.Printf("❌ Failed to ping postgres: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to postgres")

	registry := sportconfig.NewRegistry()
	overrides, err := sportconfig.LoadOverrides(cfg.Orchestrator.OverridesPath)
	if err != nil {
		fmt.Printf("❌ Failed to load calibration overrides: %v\n", err)
		os.Exit(1)
	}
	if err := overrides.Apply(registry); err != nil {
		fmt.Printf("❌ Failed to apply calibration overrides: %v\n", err)
		os.Exit(1)
	}

	handler := query.NewHandler(
		store.NewSignalStore(db),
		store.NewSimResultStore(db),
		registry,
		query.MetaInfo{
			EngineBuildID: cfg.Meta.EngineBuildID,
			SimVersion:    cfg.Meta.SimVersion,
			DeployedAt:    cfg.Meta.DeployedAt,
			Environment:   cfg.Meta.Environment,
		},
	)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(15 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", handler.HandleHealth)
	r.Get("/meta", handler.HandleMeta)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/game-decisions/{game_id}", handler.HandleGameDecisions)
		r.Get("/market-state-registry", handler.HandleMarketStateRegistry)
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("✓ Query API listening on %s\n", cfg.Server.Addr)
		fmt.Println("  Endpoints:")
		fmt.Println("    GET /health")
		fmt.Println("    GET /meta")
		fmt.Println("    GET /api/v1/game-decisions/{game_id}?league={sport}")
		fmt.Println("    GET /api/v1/market-state-registry?game_id={game_id}")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		fmt.Printf("❌ Server error: %v\n", err)
		os.Exit(1)
	case sig := <-shutdown:
		fmt.Printf("\n⚠️  Received signal: %v\n", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("⚠️  Graceful shutdown failed: %v\n", err)
			if err := srv.Close(); err != nil {
				fmt.Printf("❌ Could not stop server: %v\n", err)
			}
		}
	}

	fmt.Println("✓ Shutdown complete")
}
