// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

// Package config loads and validates application configuration from
// defaults, an optional YAML file, and environment variables, in that
// order of increasing precedence.
package config

import (
	"fmt"
	"time"
)

// Config aggregates every tunable of the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	LLM       LLMConfig       `koanf:"llm"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Recommend RecommendConfig `koanf:"recommend"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	Environment       string        `koanf:"environment"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig controls the embedded DuckDB instance.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// LLMConfig controls the text-generation backend. The client speaks the
// OpenAI-compatible chat completions protocol, so BaseURL may point at
// any conforming gateway.
type LLMConfig struct {
	Enabled     bool          `koanf:"enabled"`
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
}

// CatalogConfig controls the Aladin book catalog client used to enrich
// recommendations with cover images and detail links.
type CatalogConfig struct {
	Enabled           bool          `koanf:"enabled"`
	BaseURL           string        `koanf:"base_url"`
	TTBKey            string        `koanf:"ttb_key"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
}

// RecommendConfig tunes the recommendation engine.
type RecommendConfig struct {
	PoolSize        int           `koanf:"pool_size"`
	MaxCount        int           `koanf:"max_count"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	GenerateTimeout time.Duration `koanf:"generate_timeout"`
	EnrichTimeout   time.Duration `koanf:"enrich_timeout"`
}

// APIConfig tunes pagination of list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DefaultConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8686,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			Environment:       "production",
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "data/epigraph.db",
			MaxMemory: "512MB",
			Threads:   4,
		},
		LLM: LLMConfig{
			Enabled:     true,
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.9,
			Timeout:     30 * time.Second,
		},
		Catalog: CatalogConfig{
			Enabled:           true,
			BaseURL:           "https://www.aladin.co.kr/ttb/api",
			Timeout:           5 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Recommend: RecommendConfig{
			PoolSize:        5,
			MaxCount:        10,
			CacheTTL:        time.Hour,
			CleanupInterval: 10 * time.Minute,
			GenerateTimeout: 30 * time.Second,
			EnrichTimeout:   5 * time.Second,
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks cross-field consistency. It is called once after
// loading; handlers may assume a validated config.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.LLM.Enabled {
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm.base_url is required when llm is enabled")
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm.model is required when llm is enabled")
		}
		if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
			return fmt.Errorf("llm.temperature must be between 0 and 2, got %g", c.LLM.Temperature)
		}
	}
	if c.Catalog.Enabled {
		if c.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog.base_url is required when catalog is enabled")
		}
		if c.Catalog.RequestsPerSecond <= 0 {
			return fmt.Errorf("catalog.requests_per_second must be positive, got %g", c.Catalog.RequestsPerSecond)
		}
	}
	if c.Recommend.PoolSize < 1 {
		return fmt.Errorf("recommend.pool_size must be at least 1, got %d", c.Recommend.PoolSize)
	}
	if c.Recommend.MaxCount < c.Recommend.PoolSize {
		return fmt.Errorf("recommend.max_count (%d) must be at least recommend.pool_size (%d)",
			c.Recommend.MaxCount, c.Recommend.PoolSize)
	}
	if c.Recommend.CacheTTL <= 0 {
		return fmt.Errorf("recommend.cache_ttl must be positive, got %s", c.Recommend.CacheTTL)
	}
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size (%d) must be between 1 and api.max_page_size (%d)",
			c.API.DefaultPageSize, c.API.MaxPageSize)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}
