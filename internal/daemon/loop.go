package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/winswap/internal/hotswap"
	"github.com/1broseidon/winswap/internal/platform"
)

// ErrWindowLost is returned by Run when a swap failed unrecoverably and no
// backend window is left.
var ErrWindowLost = errors.New("no window left after swap failure")

// DefaultTickInterval is roughly one frame at 60Hz.
const DefaultTickInterval = 16 * time.Millisecond

// RebindFunc is called on the loop goroutine after every window
// construction so the application can rebuild context bound resources.
type RebindFunc func(w platform.Window)

// LoopConfig holds configuration for the owner loop.
type LoopConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
	// OnRebind is optional.
	OnRebind RebindFunc
}

// Loop is the owner goroutine of the orchestrator. It steps the state
// machine on every tick and stops when the window asks to close.
type Loop struct {
	interval time.Duration
	orch     *hotswap.Orchestrator
	onRebind RebindFunc
	logger   *slog.Logger
	stepped  uint64
	err      error
}

// NewLoop creates a loop around orch.
func NewLoop(cfg LoopConfig, orch *hotswap.Orchestrator) *Loop {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Loop{
		interval: interval,
		orch:     orch,
		onRebind: cfg.OnRebind,
		logger:   logger,
	}
}

// Run steps until ctx is cancelled, the window requests close or the window
// is lost. It must run on the goroutine that started the orchestrator. Only
// the last case returns an error.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("loop started", "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("loop stopped")
			return nil
		case <-ticker.C:
			if !l.tick() {
				if l.err != nil {
					l.logger.Error("window lost, loop stopped", "error", l.err)
					return l.err
				}
				l.logger.Info("window closed, loop stopped")
				return nil
			}
		}
	}
}

// tick performs one step. It reports false when the window wants to close
// or no window is left; the latter also sets l.err.
func (l *Loop) tick() (running bool) {
	running = true
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("loop panic recovered", "error", err)
		}
	}()

	state := l.orch.Step()
	l.stepped++

	if l.orch.PollResourceInvalidation() {
		w := l.orch.Window()
		if w != nil {
			l.logger.Debug("rebinding resources", "backend", w.Backend(), "state", state)
			if l.onRebind != nil {
				l.onRebind(w)
			}
		}
	}

	if state.Busy() {
		return true
	}
	w := l.orch.Window()
	if w == nil {
		l.err = ErrWindowLost
		if last := l.orch.Stats().Last; last != nil && last.Err != nil {
			l.err = fmt.Errorf("%w: %w", ErrWindowLost, last.Err)
		}
		return false
	}
	return !w.ShouldClose()
}

// StepNow performs a single tick outside the ticker.
func (l *Loop) StepNow() bool {
	return l.tick()
}

// Err returns why the loop stopped, if it stopped on a lost window.
func (l *Loop) Err() error {
	return l.err
}

// Steps returns the number of ticks performed.
func (l *Loop) Steps() uint64 {
	return l.stepped
}
