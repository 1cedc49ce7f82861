// Package commands implements the lineal subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lineal-labs/lineal/internal/cli/config"
	"github.com/lineal-labs/lineal/internal/extract"
	"github.com/lineal-labs/lineal/internal/graph"
	"github.com/lineal-labs/lineal/internal/lineage"
	"github.com/lineal-labs/lineal/internal/state"
	"github.com/lineal-labs/lineal/internal/traverse"
	"github.com/lineal-labs/lineal/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Store   core.GraphStore
	Service *lineage.Service
}

// NewCommandContext creates a CommandContext with an opened store and a
// wired lineage service. Returns the context and a cleanup function that
// must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	svc := lineage.New(lineage.Config{
		Store:     store,
		Extractor: extract.NewSQLExtractor(logger),
		Engine: traverse.New(traverse.Config{
			Store:    store,
			MaxDepth: cfg.Traversal.MaxDepth,
			MaxNodes: cfg.Traversal.MaxNodes,
		}),
		Dialect:        cfg.Dialect,
		ExtractTimeout: cfg.ExtractTimeout,
		Logger:         logger,
	})

	cleanup := func() {
		_ = store.Close()
	}

	return &CommandContext{
		Cfg:     cfg,
		Logger:  logger,
		Store:   store,
		Service: svc,
	}, cleanup, nil
}

// getConfig returns the current configuration, falling back to defaults
// when no config has been loaded (e.g. in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Port: config.DefaultPort,
		Store: config.StoreConfig{
			Backend: config.DefaultBackend,
			Path:    config.DefaultStateFile,
		},
		Dialect: config.DefaultDialect,
		Output:  config.DefaultOutput,
	}
}

// openStore opens the configured graph storage backend.
func openStore(cfg *config.Config, logger *slog.Logger) (core.GraphStore, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return graph.NewMemoryStore(), nil

	case config.BackendSQLite:
		// Ensure state directory exists
		stateDir := filepath.Dir(cfg.Store.Path)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		store := state.NewSQLiteStore(logger)
		if err := store.Open(cfg.Store.Path); err != nil {
			return nil, fmt.Errorf("failed to open graph database: %w", err)
		}
		return store, nil

	case config.BackendPostgres:
		store := state.NewPostgresStore(logger)
		if err := store.Open(cfg.Store.DSN); err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage backend: %s", cfg.Store.Backend)
}
