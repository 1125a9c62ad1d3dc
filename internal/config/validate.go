// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package config

import (
	"fmt"
	"math"
	"strings"
)

// weightSumTolerance allows for float literals like 0.4+0.2+0.2+0.2 that do
// not sum to exactly 1.0 in IEEE 754.
const weightSumTolerance = 1e-9

// Validate checks the configuration for values that would produce a broken or
// surprising server. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty (use :memory: for ephemeral storage)")
	}

	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateNLP(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}

	if c.Events.BatchSize < 1 {
		return fmt.Errorf("events.batch_size must be at least 1, got %d", c.Events.BatchSize)
	}

	return nil
}

func (c *Config) validateAuth() error {
	// Development mode tolerates an empty secret (a random one is generated at
	// startup); production must configure one explicitly.
	if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters in production, got %d", len(c.Auth.JWTSecret))
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters, got %d", len(c.Auth.JWTSecret))
	}
	if c.Auth.AdminPassword != "" && len(c.Auth.AdminPassword) < 8 {
		return fmt.Errorf("auth.admin_password must be at least 8 characters")
	}
	if c.Auth.BcryptCost < 10 || c.Auth.BcryptCost > 16 {
		return fmt.Errorf("auth.bcrypt_cost must be between 10 and 16, got %d", c.Auth.BcryptCost)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := &c.Recommend

	weights := []struct {
		name  string
		value float64
	}{
		{"content_weight", r.ContentWeight},
		{"popularity_weight", r.PopularityWeight},
		{"freshness_weight", r.FreshnessWeight},
		{"credibility_weight", r.CredibilityWeight},
	}
	sum := 0.0
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			return fmt.Errorf("recommend.%s must be in [0,1], got %g", w.name, w.value)
		}
		sum += w.value
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("recommend score weights must sum to 1.0, got %g", sum)
	}

	if r.DiversityFactor < 0 || r.DiversityFactor > 1 {
		return fmt.Errorf("recommend.diversity_factor must be in [0,1], got %g", r.DiversityFactor)
	}
	if r.FreshnessMode != "step" && r.FreshnessMode != "halflife" {
		return fmt.Errorf("recommend.freshness_mode must be step or halflife, got %q", r.FreshnessMode)
	}
	if r.FreshnessHalfLife <= 0 {
		return fmt.Errorf("recommend.freshness_half_life must be positive")
	}
	if r.RetrievalMultiple < 1 {
		return fmt.Errorf("recommend.retrieval_multiple must be at least 1, got %d", r.RetrievalMultiple)
	}
	if r.ProfileEventCap < 1 {
		return fmt.Errorf("recommend.profile_event_cap must be at least 1, got %d", r.ProfileEventCap)
	}
	if r.ProfileCacheSize < 1 {
		return fmt.Errorf("recommend.profile_cache_size must be at least 1, got %d", r.ProfileCacheSize)
	}
	if r.PopularityDenominator <= 0 {
		return fmt.Errorf("recommend.popularity_denominator must be positive, got %g", r.PopularityDenominator)
	}
	if r.DefaultLimit < 1 {
		return fmt.Errorf("recommend.default_limit must be at least 1, got %d", r.DefaultLimit)
	}
	if r.MaxLimit < r.DefaultLimit {
		return fmt.Errorf("recommend.max_limit (%d) must be >= recommend.default_limit (%d)", r.MaxLimit, r.DefaultLimit)
	}
	return nil
}

func (c *Config) validateNLP() error {
	if c.NLP.Dimensions < 1 {
		return fmt.Errorf("nlp.dimensions must be at least 1, got %d", c.NLP.Dimensions)
	}
	if c.NLP.EmbedderURL != "" && !strings.HasPrefix(c.NLP.EmbedderURL, "http://") && !strings.HasPrefix(c.NLP.EmbedderURL, "https://") {
		return fmt.Errorf("nlp.embedder_url must be an http(s) URL, got %q", c.NLP.EmbedderURL)
	}
	return nil
}

func (c *Config) validateIngest() error {
	if !c.Ingest.Enabled {
		return nil
	}
	if len(c.Ingest.Sources) == 0 {
		return fmt.Errorf("ingest.enabled is true but ingest.sources is empty")
	}
	for i, src := range c.Ingest.Sources {
		if src.Name == "" {
			return fmt.Errorf("ingest.sources[%d].name must not be empty", i)
		}
		if !strings.HasPrefix(src.URL, "http://") && !strings.HasPrefix(src.URL, "https://") {
			return fmt.Errorf("ingest.sources[%d].url must be an http(s) URL, got %q", i, src.URL)
		}
	}
	if c.Ingest.MaxBodyChars < 1 {
		return fmt.Errorf("ingest.max_body_chars must be at least 1, got %d", c.Ingest.MaxBodyChars)
	}
	return nil
}
