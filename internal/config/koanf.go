// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "EPIGRAPH_"

// envKeyMap maps legacy, unprefixed environment variables onto koanf
// paths. Prefixed EPIGRAPH_* variables are handled generically and do
// not need an entry here.
var envKeyMap = map[string]string{
	"PORT":            "server.port",
	"DATABASE_PATH":   "database.path",
	"LLM_API_KEY":     "llm.api_key",
	"LLM_BASE_URL":    "llm.base_url",
	"LLM_MODEL":       "llm.model",
	"ALADIN_TTB_KEY":  "catalog.ttb_key",
	"ALADIN_BASE_URL": "catalog.base_url",
	"LOG_LEVEL":       "logging.level",
}

// Load builds the effective configuration: package defaults, then the
// YAML file at path (or a discovered default location when path is
// empty), then environment variables. Missing files are not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	for name, key := range envKeyMap {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("applying %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	processSliceFields(k, &cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// envTransform maps EPIGRAPH_SERVER_RATE_LIMIT_REQUESTS to
// server.rate_limit_requests: the first underscore separates the
// section from the field, the rest stay as underscores.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}

// processSliceFields re-reads comma-separated env strings into slice
// fields, which koanf's env provider leaves as a single element.
func processSliceFields(k *koanf.Koanf, cfg *Config) {
	if raw := k.String("server.cors_origins"); raw != "" && strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		cfg.Server.CORSOrigins = origins
	}
}

// findConfigFile checks CONFIG_PATH and a short list of conventional
// locations, returning the first file that exists.
func findConfigFile() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	candidates := []string{
		"config.yaml",
		"config.yml",
		filepath.Join("config", "config.yaml"),
		filepath.Join("/etc", "epigraph", "config.yaml"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
