// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

// Package main is the entry point for the Intell Weave server.
//
// Intell Weave is a self-hosted news aggregation backend that ingests RSS
// and Atom feeds, annotates articles with topics, entities and sentiment,
// and serves personalized ranked feeds built from each reader's interaction
// history.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB for articles, users, and interaction events
//  3. Authentication: JWT manager, user service, bootstrap admin
//  4. Authorization: Casbin RBAC enforcer with the embedded model and policy
//  5. NLP: Embedding client (circuit-broken HTTP with deterministic fallback) and annotator
//  6. Vector index: In-memory cosine index, warmed from stored embeddings
//  7. Event bus: Watermill in-process pubsub for interaction events
//  8. Ranking engine: Profile builder, hybrid scorer, MMR diversity re-ranker
//  9. Ingestion: Cron-scheduled feed sweeps and the on-demand URL scraper
//  10. HTTP Server: REST API under /api/v1 with Prometheus metrics
//
// All long-running components run under a suture supervisor tree; see
// internal/supervisor for the layer layout.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (SERVER_PORT, AUTH_JWT_SECRET, ...)
//   - Config file (config.yaml, or the path in CONFIG_PATH)
//   - Built-in defaults
//
// A minimal production setup needs only the signing secret and an admin
// account:
//
//	export AUTH_JWT_SECRET=$(openssl rand -base64 32)
//	export AUTH_ADMIN_EMAIL=admin@example.com
//	export AUTH_ADMIN_PASSWORD=secure-password
//	./intellweave
//
// Feed sources live in the config file:
//
//	ingest:
//	  enabled: true
//	  sources:
//	    - name: example
//	      url: https://example.com/feed.xml
//	      schedule: "*/15 * * * *"
//
// With ingestion disabled the server still answers feed requests from
// whatever the database already holds; the ingestion endpoints return 503.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (shutdown_timeout, default 10s)
//   - Flushes buffered interaction events to the database
//   - Stops feed sweeps and closes the database
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

	"github.com/intellweave/intellweave/internal/api"
	"github.com/intellweave/intellweave/internal/auth"
	"github.com/intellweave/intellweave/internal/authz"
	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/messaging"
	"github.com/intellweave/intellweave/internal/middleware"
	"github.com/intellweave/intellweave/internal/nlp"
	"github.com/intellweave/intellweave/internal/recommend"
	"github.com/intellweave/intellweave/internal/storage"
	"github.com/intellweave/intellweave/internal/supervisor"
	"github.com/intellweave/intellweave/internal/supervisor/services"
	"github.com/intellweave/intellweave/internal/vector"
)

// perfWindowSize bounds the in-memory latency sample window behind
// /admin/stats.
const perfWindowSize = 1000

// indexReconcileInterval is how often the warmer re-reads stored embeddings
// to catch rows the inline index updates missed.
const indexReconcileInterval = 15 * time.Minute

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Intell Weave with supervisor tree")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("ingest_enabled", cfg.Ingest.Enabled).
		Int("feed_sources", len(cfg.Ingest.Sources)).
		Str("environment", cfg.Server.Environment).
		Msg("Configuration loaded")

	// Initialize database
	db, err := storage.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Authentication: JWT manager, user service, bootstrap admin
	jwtManager, err := auth.NewJWTManager(&cfg.Auth)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	authService, err := auth.NewService(db, jwtManager, &cfg.Auth)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize auth service")
	}
	if created, err := authService.BootstrapAdmin(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to bootstrap admin account")
	} else if created {
		logging.Info().Str("email", cfg.Auth.AdminEmail).Msg("Admin account bootstrapped")
	}
	authMW := auth.NewMiddleware(jwtManager)

	// Authorization: Casbin RBAC with the embedded model and policy
	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization enforcer")
	}
	authzMW := authz.NewMiddleware(enforcer)

	// NLP: embedding client and annotator. With no embedder URL configured
	// the service runs on the deterministic hashing fallback alone.
	embedder := nlp.NewService(&cfg.NLP)
	annotator := nlp.NewAnnotator()
	if cfg.NLP.EmbedderURL == "" {
		logging.Info().Int("dimensions", embedder.Dimensions()).
			Msg("No embedder URL configured, using deterministic fallback embeddings")
	}

	// Vector index, warmed from storage by the supervised warmer service
	index := vector.NewIndex(embedder.Dimensions())

	// Interaction event bus: batched persistence plus popularity tracking
	bus, err := messaging.NewBus(cfg.Events, cfg.Recommend.PopularityWindow, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}

	// Ranking engine fed by the popularity tracker
	engine := recommend.NewEngine(&cfg.Recommend, db, index, embedder, bus.Popularity().Lookup)
	logging.Info().
		Float64("content_weight", cfg.Recommend.ContentWeight).
		Float64("popularity_weight", cfg.Recommend.PopularityWeight).
		Float64("freshness_weight", cfg.Recommend.FreshnessWeight).
		Float64("credibility_weight", cfg.Recommend.CredibilityWeight).
		Float64("diversity_factor", cfg.Recommend.DiversityFactor).
		Msg("Ranking engine initialized")

	// Ingestion subsystem (optional)
	ing, err := initIngest(cfg, db, annotator, embedder, index)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize ingestion")
	}

	perfMon := middleware.NewPerformanceMonitor(perfWindowSize)

	deps := api.Deps{
		DB:        db,
		Engine:    engine,
		Auth:      authService,
		Publisher: bus.Publisher(),
		Bus:       bus,
		Index:     index,
		Embedder:  embedder,
		Config:    cfg,
		PerfMon:   perfMon,
	}
	if ing != nil {
		deps.Scraper = ing.Scraper
		deps.Scheduler = ing.Scheduler
		deps.Pipeline = ing.Pipeline
	}
	handler := api.NewHandler(deps)
	router := api.NewRouter(handler, authMW, authzMW)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Data layer: event bus and vector index warmer
	tree.AddDataService(services.NewEventBusService(bus))
	warm := func(ctx context.Context, since time.Time) (int, error) {
		return vector.Warm(ctx, index, db, since)
	}
	tree.AddDataService(services.NewIndexWarmerService(warm, cfg.Recommend.CandidateWindow, indexReconcileInterval, logging.Logger()))
	logging.Info().Msg("Event bus and index warmer added to supervisor tree")

	// Ingest layer: cron feed scheduler (only when ingestion is enabled)
	if ing != nil {
		tree.AddIngestService(services.NewSchedulerService(ing.Scheduler))
		logging.Info().Int("sources", len(cfg.Ingest.Sources)).Msg("Feed scheduler added to supervisor tree")
	}

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
