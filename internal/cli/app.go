// Package cli implements the flowline command line interface.
package cli

import (
	"io"
	"log/slog"

	"github.com/flowline-dev/flowline/internal/config"
	"github.com/flowline-dev/flowline/internal/history"
	"github.com/flowline-dev/flowline/internal/log"
	"github.com/flowline-dev/flowline/pkg/workflow"
)

// app wires the engine's collaborators from a loaded configuration. Each
// command builds one app, uses it, and closes it.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *workflow.Registry
	store    workflow.ExecutionStore
	engine   *workflow.Engine
	closers  []func() error
}

// newApp loads configuration and constructs the registry, history store, and
// engine. Extra engine options are appended after the config-derived ones.
func newApp(cfgPath string, logOutput io.Writer, engineOpts ...workflow.EngineOption) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger := log.New(&log.Config{
		Level:  cfg.Log.Level,
		Format: log.Format(cfg.Log.Format),
		Output: logOutput,
	})

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: workflow.NewRegistry(),
	}

	switch cfg.History.Backend {
	case config.BackendSQLite:
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
	default:
		a.store = history.NewMemoryStore()
	}

	opts := append([]workflow.EngineOption{
		workflow.WithLogger(logger),
		workflow.WithParallelism(cfg.Engine.Parallelism),
	}, engineOpts...)
	a.engine = workflow.NewEngine(a.registry, a.store, opts...)

	if cfg.Workflows.Dir != "" {
		defs, err := workflow.LoadDir(cfg.Workflows.Dir)
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			if _, err := a.registry.CreateFromDefinition(def); err != nil {
				return nil, err
			}
		}
	}

	return a, nil
}

// Close releases the app's resources in reverse acquisition order.
func (a *app) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
