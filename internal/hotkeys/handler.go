// Package hotkeys binds global X11 key sequences to swap requests.
package hotkeys

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/winswap/internal/config"
	"github.com/1broseidon/winswap/internal/hotswap"
	"github.com/1broseidon/winswap/internal/x11"
)

// Swapper is the part of the daemon controller hotkeys drive. Callbacks
// run on the xevent goroutine, so implementations only queue work.
type Swapper interface {
	SwapRelative(step int) (*hotswap.Ticket, error)
	Cancel() error
}

// Handler manages global keyboard shortcuts
type Handler struct {
	conn    *x11.Connection
	swapper Swapper
	logger  *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler on conn.
func NewHandler(conn *x11.Connection, swapper Swapper, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})

	return &Handler{
		conn:    conn,
		swapper: swapper,
		logger:  logger,
	}
}

// Register binds every non-empty sequence in cfg.
func (h *Handler) Register(cfg config.HotkeyConfig) error {
	bindings := []struct {
		name string
		seq  string
		fn   func()
	}{
		{"swap_next", cfg.SwapNext, func() { h.swap(1) }},
		{"swap_previous", cfg.SwapPrevious, func() { h.swap(-1) }},
		{"cancel", cfg.Cancel, h.cancel},
	}
	for _, b := range bindings {
		if b.seq == "" {
			continue
		}
		if err := h.RegisterFunc(b.seq, b.fn); err != nil {
			return fmt.Errorf("failed to register %s hotkey %q: %w", b.name, b.seq, err)
		}
		h.logger.Info("hotkey registered", "action", b.name, "keys", b.seq)
	}
	return nil
}

func (h *Handler) swap(step int) {
	ticket, err := h.swapper.SwapRelative(step)
	if err != nil {
		h.logger.Warn("hotkey swap rejected", "step", step, "error", err)
		return
	}
	h.logger.Info("hotkey swap queued", "id", ticket.ID(), "step", step)
}

func (h *Handler) cancel() {
	if err := h.swapper.Cancel(); err != nil {
		h.logger.Warn("hotkey cancel rejected", "error", err)
		return
	}
	h.logger.Info("hotkey cancel requested")
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.conn.XUtil, h.conn.Root, keySequence, true)
}

// Run dispatches key events until Stop. It blocks.
func (h *Handler) Run() {
	h.conn.EventLoop()
}

// Stop ends Run and closes the connection.
func (h *Handler) Stop() {
	h.conn.Quit()
	h.conn.Close()
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	xevent.IgnoreMods = ignoreMasks(base)
}

// ignoreMasks returns every combination of the lock masks in base,
// including the empty one, without duplicates.
func ignoreMasks(base []uint16) []uint16 {
	seen := map[uint16]bool{0: true}
	out := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		if !seen[mask] {
			seen[mask] = true
			out = append(out, mask)
		}
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
