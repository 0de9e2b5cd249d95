// Package server wires the Homa assistant core into a ready-to-serve HTTP
// server: store, fact sources, resolver, step registry, orchestrator, and
// router.
//
// Usage:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/homatabesh/homa-core/internal/actions"
	"github.com/homatabesh/homa-core/internal/api"
	"github.com/homatabesh/homa-core/internal/api/handlers"
	"github.com/homatabesh/homa-core/internal/authority"
	"github.com/homatabesh/homa-core/internal/commerce"
	"github.com/homatabesh/homa-core/internal/config"
	"github.com/homatabesh/homa-core/internal/knowledge"
	"github.com/homatabesh/homa-core/internal/notify"
	"github.com/homatabesh/homa-core/internal/orchestrator"
	"github.com/homatabesh/homa-core/internal/retention"
	"github.com/homatabesh/homa-core/internal/steps"
	"github.com/homatabesh/homa-core/internal/store"
	"github.com/homatabesh/homa-core/internal/telemetry"
)

// Server holds the initialized Homa core.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the override/action-log store.
	Store store.Store

	// Resolver is the authority resolver, exposed for embedding callers.
	Resolver *authority.Resolver

	// Orchestrator runs action sequences.
	Orchestrator *orchestrator.Orchestrator

	// Janitor prunes old action-log entries; run it with Start.
	Janitor *retention.Janitor

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from environment configuration.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the core with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	// Store: PostgreSQL when configured, in-memory otherwise.
	var dataStore store.Store
	if cfg.Database.URL != "" {
		dataStore, err = store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	} else {
		dataStore = store.NewMemoryStore()
		log.Info().Msg("In-memory store initialized")
	}

	// Authority ladder: override store > panel settings > live storefront
	// data > general knowledge. Missing fact files degrade to empty
	// sources; overrides and live data still resolve.
	storefront := commerce.NewClient(cfg.Storefront.BaseURL)
	panel := loadFacts("panel_setting", cfg.Facts.PanelSettingsPath)
	general := loadFacts("general_knowledge", cfg.Facts.KnowledgeBasePath)
	resolver := authority.NewResolver(dataStore, panel, storefront, general)

	// Step registry + orchestrator. The storefront client covers both OTP
	// verification and cart/order mutation.
	sms := notify.NewSMSClient(cfg.SMS.Endpoint, cfg.SMS.APIKey)
	registry := steps.NewDefaultRegistry(storefront, storefront, sms)
	orch := orchestrator.New(registry, dataStore)
	parser := actions.NewParser(registry)

	log.Info().
		Strs("step_kinds", registry.Kinds()).
		Msg("Orchestrator initialized")

	h := handlers.New(resolver, orch, parser, dataStore)
	router := api.NewRouter(cfg, h)

	return &Server{
		Handler:      router,
		Store:        dataStore,
		Resolver:     resolver,
		Orchestrator: orch,
		Janitor:      retention.NewJanitor(dataStore, time.Hour, cfg.Retention.Days),
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}

// loadFacts loads a file-backed fact source, falling back to an empty
// source when the file is absent or unreadable.
func loadFacts(name, path string) *knowledge.Base {
	base, err := knowledge.Load(name, path)
	if err != nil {
		log.Warn().Err(err).Str("source", name).Str("path", path).Msg("Fact file not loaded, level will be empty")
		return knowledge.New(name, nil)
	}
	log.Info().Str("source", name).Int("facts", base.Len()).Msg("Fact file loaded")
	return base
}
