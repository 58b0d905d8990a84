package main

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/winswap/internal/config"
	"github.com/1broseidon/winswap/internal/daemon"
	"github.com/1broseidon/winswap/internal/headless"
	"github.com/1broseidon/winswap/internal/platform"
	"github.com/1broseidon/winswap/internal/registry"
)

// backend is a compiled-in window backend. Platform files append to
// compiledBackends from init.
type backend struct {
	id       string
	name     string
	version  func() string
	features platform.FeatureSet
	factory  registry.Factory
	// setup runs on the main thread before the first window is created and
	// returns the matching teardown.
	setup func() (func(), error)
	// rebind reloads context bound state after a construction.
	rebind func(platform.Window) error
	// rank orders the automatic default; higher wins.
	rank int
}

var compiledBackends = []backend{
	{
		id:       headless.ID,
		name:     "Headless",
		features: headless.Features,
		factory:  headless.Factory(headless.ID),
	},
}

// setupBackends registers every compiled backend the config enables and
// returns a teardown for the ones that needed setup. A backend whose setup
// fails is skipped with a warning.
func setupBackends(reg *registry.Registry, cfg *config.Config, logger *slog.Logger) (teardown func(), rebind daemon.RebindFunc, err error) {
	var teardowns []func()
	var rebinds []func(platform.Window) error
	best := -1

	for _, b := range compiledBackends {
		if !cfg.BackendEnabled(b.id) {
			logger.Debug("backend disabled by config", "backend", b.id)
			continue
		}
		if b.setup != nil {
			td, err := b.setup()
			if err != nil {
				logger.Warn("backend unavailable", "backend", b.id, "error", err)
				continue
			}
			if td != nil {
				teardowns = append(teardowns, td)
			}
		}

		opts := []registry.Option{registry.WithName(b.name)}
		if b.version != nil {
			opts = append(opts, registry.WithVersion(b.version()))
		}
		if err := reg.Register(b.id, b.factory, b.features, opts...); err != nil {
			logger.Warn("failed to register backend", "backend", b.id, "error", err)
			continue
		}
		if b.rebind != nil {
			rebinds = append(rebinds, b.rebind)
		}
		if b.rank > best {
			best = b.rank
			if err := reg.SetDefault(b.id); err != nil {
				logger.Warn("failed to set default backend", "backend", b.id, "error", err)
			}
		}
	}

	teardown = func() {
		for i := len(teardowns) - 1; i >= 0; i-- {
			teardowns[i]()
		}
	}

	if reg.Len() == 0 {
		teardown()
		return nil, nil, fmt.Errorf("no window backend available (compiled: %s)", compiledIDs())
	}
	if cfg.DefaultBackend != "" {
		if err := reg.SetDefault(cfg.DefaultBackend); err != nil {
			teardown()
			return nil, nil, fmt.Errorf("default_backend: %w", err)
		}
	}

	rebind = func(w platform.Window) {
		for _, fn := range rebinds {
			if err := fn(w); err != nil {
				logger.Error("rebind failed", "backend", w.Backend(), "error", err)
			}
		}
	}
	return teardown, rebind, nil
}

func compiledIDs() string {
	var s string
	for i, b := range compiledBackends {
		if i > 0 {
			s += ", "
		}
		s += b.id
	}
	return s
}
