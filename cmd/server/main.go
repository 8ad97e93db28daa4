// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

// Command server runs the Epigraph backend: the quote library with its
// AI-assisted recommendation pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/epigraphlabs/epigraph/internal/api"
	"github.com/epigraphlabs/epigraph/internal/catalog"
	"github.com/epigraphlabs/epigraph/internal/config"
	"github.com/epigraphlabs/epigraph/internal/database"
	"github.com/epigraphlabs/epigraph/internal/llm"
	"github.com/epigraphlabs/epigraph/internal/logging"
	"github.com/epigraphlabs/epigraph/internal/materialize"
	"github.com/epigraphlabs/epigraph/internal/recommend"
	"github.com/epigraphlabs/epigraph/internal/supervisor"
	"github.com/epigraphlabs/epigraph/internal/supervisor/services"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: discovered)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting Epigraph")

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var generator recommend.Generator
	if cfg.LLM.Enabled {
		generator = llm.NewClient(cfg.LLM)
	} else {
		logging.Warn().Msg("Generation disabled; recommendations will be empty")
		generator = disabledGenerator{}
	}

	var enricher recommend.Enricher
	if cfg.Catalog.Enabled && cfg.Catalog.TTBKey != "" {
		enricher = catalog.NewClient(cfg.Catalog)
	} else {
		logging.Warn().Msg("Catalog enrichment disabled; covers and links will use fallbacks")
		enricher = fallbackEnricher{}
	}

	cache := recommend.NewPoolCache()
	engine := recommend.NewEngine(generator, enricher, cache, cfg.Recommend, cfg.LLM.Temperature)
	materializer := materialize.NewService(db)

	handlers := api.NewHandlers(engine, db, materializer, cfg)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handlers),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.Add(services.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))
	tree.Add(services.NewJanitorService(cache, cfg.Recommend.CleanupInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", httpServer.Addr).Msg("Listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervision tree: %w", err)
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}

// disabledGenerator satisfies recommend.Generator when no LLM backend
// is configured; the engine degrades to empty output.
type disabledGenerator struct{}

func (disabledGenerator) Generate(ctx context.Context, prompt string, temperature float64, structured bool) (string, error) {
	return "", errors.New("generation backend disabled")
}

// fallbackEnricher serves search links without calling the catalog.
type fallbackEnricher struct{}

func (fallbackEnricher) Enrich(ctx context.Context, title, author string) (string, string, error) {
	return "", catalog.FallbackLink(title, author), nil
}
