// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/intellweave/intellweave/internal/auth"
	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/ingest"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/messaging"
	"github.com/intellweave/intellweave/internal/middleware"
	"github.com/intellweave/intellweave/internal/models"
	"github.com/intellweave/intellweave/internal/nlp"
	"github.com/intellweave/intellweave/internal/recommend"
	"github.com/intellweave/intellweave/internal/storage"
	"github.com/intellweave/intellweave/internal/vector"
)

// Version is stamped at build time via -ldflags "-X .../internal/api.Version=v1.2.3".
var Version = "dev"

// readyCheckTimeout bounds dependency probes in the readiness handler.
const readyCheckTimeout = 2 * time.Second

// Handler carries the dependencies shared by all HTTP handlers. The ingest
// trio (scraper, scheduler, pipeline) is nil when ingestion is disabled;
// the affected endpoints then answer 503.
type Handler struct {
	db        *storage.DB
	engine    *recommend.Engine
	auth      *auth.Service
	publisher *messaging.EventPublisher
	bus       *messaging.Bus
	scraper   *ingest.Scraper
	scheduler *ingest.Scheduler
	pipeline  *ingest.Pipeline
	index     *vector.Index
	embedder  *nlp.Service
	cfg       *config.Config
	perfMon   *middleware.PerformanceMonitor
	log       zerolog.Logger
	startTime time.Time
}

// Deps bundles the handler dependencies; DB, Engine, Auth and Config are
// required, the rest degrade gracefully when absent.
type Deps struct {
	DB        *storage.DB
	Engine    *recommend.Engine
	Auth      *auth.Service
	Publisher *messaging.EventPublisher
	Bus       *messaging.Bus
	Scraper   *ingest.Scraper
	Scheduler *ingest.Scheduler
	Pipeline  *ingest.Pipeline
	Index     *vector.Index
	Embedder  *nlp.Service
	Config    *config.Config
	PerfMon   *middleware.PerformanceMonitor
}

// NewHandler creates the handler set.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		db:        deps.DB,
		engine:    deps.Engine,
		auth:      deps.Auth,
		publisher: deps.Publisher,
		bus:       deps.Bus,
		scraper:   deps.Scraper,
		scheduler: deps.Scheduler,
		pipeline:  deps.Pipeline,
		index:     deps.Index,
		embedder:  deps.Embedder,
		cfg:       deps.Config,
		perfMon:   deps.PerfMon,
		log:       logging.WithComponent("api"),
		startTime: time.Now(),
	}
}

// feedLimits returns the configured default and maximum page sizes with
// safe fallbacks for zero-valued configuration.
func (h *Handler) feedLimits() (def, max int) {
	def = h.cfg.Recommend.DefaultLimit
	if def <= 0 {
		def = 20
	}
	max = h.cfg.Recommend.MaxLimit
	if max <= 0 {
		max = 100
	}
	return def, max
}

// Health is the liveness probe. It reports process identity and uptime and
// flags a degraded database without failing: liveness means the process is
// worth keeping, not that every dependency is up.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	status := "healthy"
	if err := h.db.Ping(ctx); err != nil {
		status = "degraded"
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":         status,
			"version":        Version,
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// Ready is the readiness probe. It answers 503 until storage responds and
// the event bus consumers are running, so load balancers hold traffic
// during startup and drain.
// GET /ready
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = "unreachable"
		ready = false
	} else {
		checks["database"] = "ok"
	}

	if h.bus != nil {
		select {
		case <-h.bus.Running():
			checks["events"] = "ok"
		default:
			checks["events"] = "not_running"
			ready = false
		}
	}

	state := "ready"
	status := http.StatusOK
	if !ready {
		state = "not_ready"
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, r, status, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status": state,
			"checks": checks,
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
