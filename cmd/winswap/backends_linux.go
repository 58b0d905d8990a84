//go:build linux

package main

import (
	"log/slog"
	"os"

	"github.com/1broseidon/winswap/internal/config"
	"github.com/1broseidon/winswap/internal/hotkeys"
	"github.com/1broseidon/winswap/internal/x11"
)

func init() {
	compiledBackends = append(compiledBackends, backend{
		id:       x11.ID,
		name:     "X11",
		features: x11.Features,
		factory:  x11.Factory,
		setup:    requireDisplay,
		rank:     1,
	})
	startHotkeys = startX11Hotkeys
}

func requireDisplay() (func(), error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, errNoDisplay
	}
	return nil, nil
}

// startX11Hotkeys binds the configured keys on a dedicated connection so
// key grabs never compete with the window's own event queue.
func startX11Hotkeys(cfg config.HotkeyConfig, swapper hotkeys.Swapper, logger *slog.Logger) (func(), error) {
	if cfg.SwapNext == "" && cfg.SwapPrevious == "" && cfg.Cancel == "" {
		return func() {}, nil
	}
	if os.Getenv("DISPLAY") == "" {
		return nil, errNoDisplay
	}

	conn, err := x11.NewConnection()
	if err != nil {
		return nil, err
	}
	handler := hotkeys.NewHandler(conn, swapper, logger)
	if err := handler.Register(cfg); err != nil {
		conn.Close()
		return nil, err
	}
	go handler.Run()
	return handler.Stop, nil
}
