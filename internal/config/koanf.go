// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"config/config.yaml",
	"/etc/intellweave/config.yaml",
	"/etc/intellweave/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. These are applied
// first, then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/intellweave.duckdb",
			MaxMemory: "2GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Auth: AuthConfig{
			JWTSecret:       "",
			TokenTTL:        12 * time.Hour,
			BcryptCost:      12,
			AdminEmail:      "",
			AdminPassword:   "",
			LoginRateLimit:  5,
			LoginRateWindow: time.Minute,
		},
		Recommend: RecommendConfig{
			ProfileWindow:    90 * 24 * time.Hour,
			ProfileEventCap:  500,
			ProfileCacheTTL:  15 * time.Minute,
			ProfileCacheSize: 10000,

			CandidateWindow:   14 * 24 * time.Hour,
			RetrievalMultiple: 2,
			RetrievalTimeout:  2 * time.Second,
			RequestTimeout:    5 * time.Second,

			ContentWeight:     0.4,
			PopularityWeight:  0.2,
			FreshnessWeight:   0.2,
			CredibilityWeight: 0.2,

			PopularityWindow:      24 * time.Hour,
			PopularityDenominator: 50,

			FreshnessMode:     "step",
			FreshnessHalfLife: 48 * time.Hour,

			DiversityFactor: 0.3,

			FallbackWindow: 7 * 24 * time.Hour,

			DefaultLimit: 20,
			MaxLimit:     100,
		},
		NLP: NLPConfig{
			EmbedderURL: "", // Empty = deterministic fallback embedder
			Dimensions:  384,
			Timeout:     5 * time.Second,
			RateLimit:   10,
			RateBurst:   20,
		},
		Ingest: IngestConfig{
			Enabled:         false, // Opt-in; sources must be configured
			Sources:         nil,
			DefaultSchedule: "@every 15m",
			FetchTimeout:    15 * time.Second,
			MaxBodyChars:    20000,
			UserAgent:       "intellweave/1.0 (+https://github.com/intellweave/intellweave)",
			PerHostRate:     1,
		},
		Events: EventsConfig{
			BatchSize:     200,
			FlushInterval: 500 * time.Millisecond,
			BufferSize:    1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// The result is validated; an invalid configuration is an error, not a warning.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority).
	// SERVER_PORT -> server.port, RECOMMEND_DIVERSITY_FACTOR -> recommend.diversity_factor
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values for known slice fields
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, env override first, then the
// default paths. Returns empty string when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// configSections are the top-level config groups recognized in environment
// variable names: SERVER_PORT -> server.port.
var configSections = []string{
	"server", "database", "auth", "recommend", "nlp", "ingest", "events",
	"logging", "metrics",
}

// legacyEnvMappings supports the short variable names used in deployment
// scripts before the sectioned scheme.
var legacyEnvMappings = map[string]string{
	"port":           "server.port",
	"host":           "server.host",
	"duckdb_path":    "database.path",
	"jwt_secret":     "auth.jwt_secret",
	"admin_email":    "auth.admin_email",
	"admin_password": "auth.admin_password",
	"log_level":      "logging.level",
	"log_format":     "logging.format",
	"embedder_url":   "nlp.embedder_url",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unrecognized variables map to the empty string and are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if path, ok := legacyEnvMappings[key]; ok {
		return path
	}

	for _, section := range configSections {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) {
			return section + "." + strings.TrimPrefix(key, prefix)
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when they arrive as strings from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. YAML-sourced values are already slices and are skipped.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}
