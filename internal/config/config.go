// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

// Package config provides layered configuration loading for the Intell Weave
// server using Koanf v2.
//
// Configuration is resolved from three sources, highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML config file (first match in DefaultConfigPaths, or CONFIG_PATH)
//  3. Environment variables (SERVER_PORT, RECOMMEND_DIVERSITY_FACTOR, ...)
//
// The loaded Config is validated before use; the server refuses to start on an
// invalid configuration rather than limping along with surprising behavior.
package config

import "time"

// Config is the root configuration for the Intell Weave server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Recommend RecommendConfig `koanf:"recommend"`
	NLP       NLPConfig       `koanf:"nlp"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Events    EventsConfig    `koanf:"events"`
	Logging   LoggingConfig   `koanf:"logging"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`             // Bind address (default: 0.0.0.0)
	Port            int           `koanf:"port"`             // Listen port (default: 8080)
	ReadTimeout     time.Duration `koanf:"read_timeout"`     // Max time to read a request
	WriteTimeout    time.Duration `koanf:"write_timeout"`    // Max time to write a response
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"` // Grace period for in-flight requests on shutdown
	CORSOrigins     []string      `koanf:"cors_origins"`     // Allowed CORS origins (default: *)
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`  // Requests per window per IP (0 disables)
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	Environment     string        `koanf:"environment"` // development or production
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`       // Database file path; ":memory:" for ephemeral
	MaxMemory string `koanf:"max_memory"` // DuckDB memory limit (e.g. "2GB")
	Threads   int    `koanf:"threads"`    // Query threads; 0 = runtime.NumCPU()
}

// AuthConfig holds JWT authentication settings.
type AuthConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`       // HMAC signing secret (32+ chars required)
	TokenTTL        time.Duration `koanf:"token_ttl"`        // Token lifetime (default: 12h)
	BcryptCost      int           `koanf:"bcrypt_cost"`      // Password hash cost (default: 12)
	AdminEmail      string        `koanf:"admin_email"`      // Bootstrap admin created when the users table is empty
	AdminPassword   string        `koanf:"admin_password"`   // Bootstrap admin password (8+ chars)
	LoginRateLimit  int           `koanf:"login_rate_limit"` // Login attempts per window per IP
	LoginRateWindow time.Duration `koanf:"login_rate_window"`
}

// RecommendConfig holds the tunables of the personalized feed pipeline.
// Defaults mirror the canonical constants in internal/recommend; override with
// care, the blend weights must sum to 1.0.
type RecommendConfig struct {
	// Profile building
	ProfileWindow    time.Duration `koanf:"profile_window"`     // Trailing event window (default: 90 days)
	ProfileEventCap  int           `koanf:"profile_event_cap"`  // Most-recent events considered (default: 500)
	ProfileCacheTTL  time.Duration `koanf:"profile_cache_ttl"`  // Per-process profile cache TTL (default: 15m)
	ProfileCacheSize int           `koanf:"profile_cache_size"` // Max cached profiles (default: 10000)

	// Candidate retrieval
	CandidateWindow   time.Duration `koanf:"candidate_window"`   // Publish window for candidates (default: 14 days)
	RetrievalMultiple int           `koanf:"retrieval_multiple"` // Fetch multiple×limit per strategy (default: 2)
	RetrievalTimeout  time.Duration `koanf:"retrieval_timeout"`  // Per-strategy timeout (default: 2s)
	RequestTimeout    time.Duration `koanf:"request_timeout"`    // Overall feed request deadline (default: 5s)

	// Scoring blend (must sum to 1.0)
	ContentWeight     float64 `koanf:"content_weight"`
	PopularityWeight  float64 `koanf:"popularity_weight"`
	FreshnessWeight   float64 `koanf:"freshness_weight"`
	CredibilityWeight float64 `koanf:"credibility_weight"`

	// Popularity normalization
	PopularityWindow      time.Duration `koanf:"popularity_window"`      // Trailing event window (default: 24h)
	PopularityDenominator float64       `koanf:"popularity_denominator"` // Event count for a 1.0 score (default: 50)

	// Freshness decay: "step" (canonical) or "halflife" (exponential decay)
	FreshnessMode     string        `koanf:"freshness_mode"`
	FreshnessHalfLife time.Duration `koanf:"freshness_half_life"` // Used by halflife mode only (default: 48h)

	// Diversity re-ranking
	DiversityFactor float64 `koanf:"diversity_factor"` // MMR lambda in [0,1] (default: 0.3)

	// Fallback feed
	FallbackWindow time.Duration `koanf:"fallback_window"` // Publish window (default: 7 days)

	// Result sizing
	DefaultLimit int `koanf:"default_limit"` // Feed size when unspecified (default: 20)
	MaxLimit     int `koanf:"max_limit"`     // Hard cap on requested size (default: 100)
}

// NLPConfig holds embedding service settings.
type NLPConfig struct {
	EmbedderURL string        `koanf:"embedder_url"` // Embedding service endpoint; empty = deterministic fallback only
	Dimensions  int           `koanf:"dimensions"`   // Embedding dimensionality (default: 384)
	Timeout     time.Duration `koanf:"timeout"`      // Per-request timeout to the embedder
	RateLimit   float64       `koanf:"rate_limit"`   // Outbound requests per second (0 = unlimited)
	RateBurst   int           `koanf:"rate_burst"`
}

// FeedSource describes one RSS/Atom source to poll.
type FeedSource struct {
	Name     string `koanf:"name"`
	URL      string `koanf:"url"`
	Schedule string `koanf:"schedule"` // Cron expression; empty = ingest.default_schedule
}

// IngestConfig holds article ingestion settings.
type IngestConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Sources         []FeedSource  `koanf:"sources"`
	DefaultSchedule string        `koanf:"default_schedule"` // Cron expression (default: every 15 minutes)
	FetchTimeout    time.Duration `koanf:"fetch_timeout"`
	MaxBodyChars    int           `koanf:"max_body_chars"` // Body text cap per article (default: 20000)
	UserAgent       string        `koanf:"user_agent"`
	PerHostRate     float64       `koanf:"per_host_rate"` // Fetches per second per host
}

// EventsConfig holds interaction event bus settings.
type EventsConfig struct {
	BatchSize     int           `koanf:"batch_size"`     // Events per storage batch (default: 200)
	FlushInterval time.Duration `koanf:"flush_interval"` // Max latency before a partial batch is written
	BufferSize    int           `koanf:"buffer_size"`    // gochannel buffer per subscriber
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"` // Include caller file:line
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"` // Scrape endpoint path (default: /metrics)
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
