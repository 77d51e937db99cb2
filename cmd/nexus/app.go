package main

import (
	"github.com/pysugar/claude-nexus/internal/account"
	"github.com/pysugar/claude-nexus/internal/auth/token"
	"github.com/pysugar/claude-nexus/internal/config"
	"github.com/pysugar/claude-nexus/internal/db"
	"github.com/pysugar/claude-nexus/internal/upstream"
	"gorm.io/gorm"
)

// app bundles the wired components every subcommand needs.
type app struct {
	cfg      *config.Config
	database *gorm.DB
	store    *account.Store
	orch     *token.Orchestrator
	upstream *upstream.Client
}

// newApp loads config, opens the store, and wires the refresh pipeline.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	database, err := db.InitDB(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	store := account.NewStore(database)
	engine := token.NewEngine(token.NewGoogleExchanger())

	return &app{
		cfg:      cfg,
		database: database,
		store:    store,
		orch:     token.NewOrchestrator(store, engine, cfg.RefreshThreshold()),
		upstream: upstream.NewClient(),
	}, nil
}
