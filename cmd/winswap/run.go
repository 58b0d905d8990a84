package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/winswap/internal/config"
	"github.com/1broseidon/winswap/internal/daemon"
	"github.com/1broseidon/winswap/internal/hotkeys"
	"github.com/1broseidon/winswap/internal/hotswap"
	"github.com/1broseidon/winswap/internal/ipc"
	"github.com/1broseidon/winswap/internal/logging"
	"github.com/1broseidon/winswap/internal/platform"
	"github.com/1broseidon/winswap/internal/registry"
)

var errNoDisplay = errors.New("DISPLAY is not set")

// startHotkeys is set by platform files that support global hotkeys.
var startHotkeys func(cfg config.HotkeyConfig, swapper hotkeys.Swapper, logger *slog.Logger) (func(), error)

func runDaemon(args []string) int {
	fs := newFlagSet("run", "winswap run [--path PATH] [--backend ID]",
		"Open the window and serve swap requests until the window closes or a signal arrives.")
	path := fs.String("path", "", "Config file path (default: ~/.config/winswap/config.yaml)")
	startOn := fs.String("backend", "", "Backend to start on (default: default_backend or best available)")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	load := func() (*config.Config, error) {
		res, err := loadResult(*path)
		if err != nil {
			return nil, err
		}
		return res.Config, nil
	}

	cfg, err := load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	lc := cfg.GetLoggingConfig()
	logger, logCloser, err := logging.New(os.Stderr, logging.Options{
		Level:     cfg.LogLevel,
		File:      lc.File,
		MaxSizeMB: lc.MaxSizeMB,
		MaxFiles:  lc.MaxFiles,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return 1
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	if err := serve(cfg, load, *startOn, logger); err != nil {
		logger.Error("daemon stopped", "error", err)
		return 1
	}
	return 0
}

func serve(cfg *config.Config, load daemon.ConfigLoader, startOn string, logger *slog.Logger) error {
	reg := registry.New(logger)
	teardown, rebind, err := setupBackends(reg, cfg, logger)
	if err != nil {
		return err
	}
	defer teardown()

	if startOn == "" {
		startOn = reg.Default()
	}
	hints, err := cfg.WindowHints()
	if err != nil {
		return err
	}

	orch := hotswap.New(reg, cfg.HotswapConfig(logger))
	orch.SetEventHandler(func(ev platform.Event) {
		if ev.Kind == platform.EventTick || ev.Kind == platform.EventMouseMove {
			return
		}
		logger.Debug("event", "event", ev.String(), "replayed", ev.Replayed)
	})
	if err := orch.Start(startOn, cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, hints); err != nil {
		return fmt.Errorf("start on %s: %w", startOn, err)
	}
	defer func() {
		if err := orch.Shutdown(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()
	logger.Info("window started", "backend", orch.Current(), "available", reg.Available())

	ctrl := daemon.NewController(orch, reg, cfg, load, logger)

	ipcServer, err := ipc.NewServer(ctrl, logger)
	if err != nil {
		return fmt.Errorf("create IPC server: %w", err)
	}
	if err := ipcServer.Start(); err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Stop()
	logger.Info("IPC server listening", "socket", ipcServer.SocketPath())

	if startHotkeys != nil {
		stop, err := startHotkeys(cfg.Hotkeys, ctrl, logger)
		if err != nil {
			logger.Warn("hotkeys disabled", "error", err)
		} else {
			defer stop()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading config")
					if err := ctrl.Reload(); err != nil {
						logger.Error("config reload failed", "error", err)
					}
					continue
				}
				logger.Info("received signal, shutting down", "signal", sig.String())
				cancel()
				return
			}
		}
	}()

	loop := daemon.NewLoop(daemon.LoopConfig{
		Interval: cfg.Swap.TickInterval,
		Logger:   logger,
		OnRebind: rebind,
	}, orch)
	err = loop.Run(ctx)
	logger.Info("daemon stopping", "steps", loop.Steps())
	return err
}
