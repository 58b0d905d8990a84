// Package headless implements an in-memory window backend. It allocates no
// native resources, which makes it usable on machines without a display
// server and as the rollback target of last resort.
package headless

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/winswap/internal/platform"
)

// ID is the registry id used for the headless backend.
const ID = "headless"

// ErrDestroyed is returned by operations on a destroyed window.
var ErrDestroyed = errors.New("headless: window destroyed")

// Features is the static feature set of the headless backend.
var Features = platform.NewFeatureSet(
	platform.FeatureMultiWindow,
	platform.FeatureFullscreen,
)

var live atomic.Int64

// Live returns the number of headless windows created and not yet destroyed.
func Live() int64 {
	return live.Load()
}

// Window is an in-memory platform.Window.
type Window struct {
	backend string

	mu          sync.Mutex
	width       int
	height      int
	x, y        int
	title       string
	fullscreen  bool
	config      platform.ContextConfig
	pending     []platform.Event
	shouldClose bool
	destroyed   bool
}

var _ platform.Window = (*Window)(nil)

// New creates a headless window. backend is the id reported by Backend(),
// which lets tests register several in-memory backends under different ids.
func New(backend string, width, height int, title string, hints platform.Hints) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("headless: invalid size %dx%d", width, height)
	}
	if backend == "" {
		backend = ID
	}
	w := &Window{
		backend:    backend,
		width:      width,
		height:     height,
		x:          hints.Int(platform.HintPositionX, 0),
		y:          hints.Int(platform.HintPositionY, 0),
		title:      title,
		fullscreen: hints.Bool(platform.HintFullscreen, false),
		config: platform.ContextConfig{
			GLMajor:      hints.Int(platform.HintContextVersionMajor, 0),
			GLMinor:      hints.Int(platform.HintContextVersionMinor, 0),
			Profile:      hints.Profile(),
			Samples:      hints.Int(platform.HintSamples, 0),
			DoubleBuffer: hints.Bool(platform.HintDoubleBuffer, true),
		},
	}
	live.Add(1)
	return w, nil
}

// Factory returns a registry factory creating headless windows reported
// under backend.
func Factory(backend string) func(int, int, string, platform.Hints) (platform.Window, error) {
	return func(width, height int, title string, hints platform.Hints) (platform.Window, error) {
		return New(backend, width, height, title, hints)
	}
}

func (w *Window) Backend() string { return w.backend }

func (w *Window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

func (w *Window) SetSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("headless: invalid size %dx%d", width, height)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	w.width, w.height = width, height
	w.pending = append(w.pending, platform.Event{
		Kind:   platform.EventWindowResize,
		Time:   time.Now(),
		Width:  width,
		Height: height,
	})
	return nil
}

func (w *Window) Position() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.x, w.y
}

func (w *Window) SetPosition(x, y int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	w.x, w.y = x, y
	w.pending = append(w.pending, platform.Event{
		Kind: platform.EventWindowMove,
		Time: time.Now(),
		X:    float64(x),
		Y:    float64(y),
	})
	return nil
}

func (w *Window) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *Window) SetTitle(title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	w.title = title
	return nil
}

func (w *Window) Fullscreen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fullscreen
}

func (w *Window) ContextConfig() platform.ContextConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config
}

func (w *Window) Context() platform.Context { return headlessContext{w: w} }

// Inject queues events to be returned by the next PumpEvents call.
func (w *Window) Inject(events ...platform.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return
	}
	for _, ev := range events {
		if ev.Time.IsZero() {
			ev.Time = time.Now()
		}
		if ev.Kind == platform.EventWindowClose {
			w.shouldClose = true
		}
		w.pending = append(w.pending, ev)
	}
}

func (w *Window) PumpEvents() []platform.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	out := w.pending
	w.pending = nil
	return out
}

func (w *Window) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shouldClose
}

// Destroyed reports whether Destroy has been called.
func (w *Window) Destroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

func (w *Window) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	w.destroyed = true
	w.pending = nil
	live.Add(-1)
	return nil
}

type headlessContext struct {
	w *Window
}

func (c headlessContext) MakeCurrent() error {
	if c.w.Destroyed() {
		return ErrDestroyed
	}
	return nil
}

func (c headlessContext) SwapBuffers() error {
	if c.w.Destroyed() {
		return ErrDestroyed
	}
	return nil
}

func (c headlessContext) Native() any { return c.w }
