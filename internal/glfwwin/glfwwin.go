//go:build glfw

// Package glfwwin implements an OpenGL window backend on GLFW. GLFW must be
// initialized with Init on the locked main thread, and every Window call
// must happen on that thread.
package glfwwin

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/1broseidon/winswap/internal/platform"
)

// ID is the registry id of the GLFW backend.
const ID = "glfw"

// Features is the static feature set of the GLFW backend.
var Features = platform.NewFeatureSet(
	platform.FeatureOpenGL,
	platform.FeatureMultiWindow,
	platform.FeatureHighDPI,
	platform.FeatureFullscreen,
	platform.FeatureTransparency,
	platform.FeatureCustomCursor,
	platform.FeatureRawInput,
	platform.FeatureMonitorInfo,
)

// ErrDestroyed is returned by operations on a destroyed window.
var ErrDestroyed = errors.New("glfw: window destroyed")

// Init locks the calling goroutine to its OS thread and initializes GLFW.
func Init() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	return nil
}

// Terminate shuts GLFW down. Every window must be destroyed first.
func Terminate() {
	glfw.Terminate()
}

// Version returns the GLFW runtime version string.
func Version() string {
	return glfw.GetVersionString()
}

// Window is a GLFW platform.Window.
type Window struct {
	win       *glfw.Window
	title     string
	config    platform.ContextConfig
	pending   []platform.Event
	destroyed bool
}

var _ platform.Window = (*Window)(nil)

// Factory creates GLFW windows for the registry.
func Factory(width, height int, title string, hints platform.Hints) (platform.Window, error) {
	return New(width, height, title, hints)
}

// New creates a window with a current OpenGL context and loads GL entry
// points for it.
func New(width, height int, title string, hints platform.Hints) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("glfw: invalid size %dx%d", width, height)
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
	for _, h := range windowHints(hints) {
		glfw.WindowHint(h.hint, h.value)
	}

	var monitor *glfw.Monitor
	if hints.Bool(platform.HintFullscreen, false) {
		monitor = glfw.GetPrimaryMonitor()
	}

	win, err := glfw.CreateWindow(width, height, title, monitor, nil)
	if err != nil {
		return nil, fmt.Errorf("glfw: create window: %w", err)
	}

	if monitor == nil {
		x, okX := hints.Get(platform.HintPositionX)
		y, okY := hints.Get(platform.HintPositionY)
		if okX && okY {
			win.SetPos(x, y)
		}
	}

	win.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("glfw: gl init: %w", err)
	}

	w := &Window{win: win, title: title}
	w.config = w.negotiated()
	w.installCallbacks()
	return w, nil
}

// negotiated reads back what the driver actually created.
func (w *Window) negotiated() platform.ContextConfig {
	cfg := platform.ContextConfig{
		GLMajor: w.win.GetAttrib(glfw.ContextVersionMajor),
		GLMinor: w.win.GetAttrib(glfw.ContextVersionMinor),
		Profile: fromGLFWProfile(w.win.GetAttrib(glfw.OpenGLProfile)),
	}

	var samples int32
	gl.GetIntegerv(gl.SAMPLES, &samples)
	cfg.Samples = int(samples)

	var double bool
	gl.GetBooleanv(gl.DOUBLEBUFFER, &double)
	cfg.DoubleBuffer = double
	return cfg
}

func (w *Window) installCallbacks() {
	w.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		kind := platform.EventKeyPress
		switch action {
		case glfw.Release:
			kind = platform.EventKeyRelease
		case glfw.Repeat:
			kind = platform.EventKeyRepeat
		}
		w.push(platform.Event{
			Kind: kind,
			Code: scancode,
			Key:  glfw.GetKeyName(key, scancode),
			Mods: modifiers(mods),
		})
	})
	w.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		kind := platform.EventMouseButtonPress
		if action == glfw.Release {
			kind = platform.EventMouseButtonRelease
		}
		x, y := w.win.GetCursorPos()
		w.push(platform.Event{Kind: kind, Button: int(button), X: x, Y: y, Mods: modifiers(mods)})
	})
	w.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.push(platform.Event{Kind: platform.EventMouseMove, X: x, Y: y})
	})
	w.win.SetScrollCallback(func(_ *glfw.Window, dx, dy float64) {
		w.push(platform.Event{Kind: platform.EventMouseScroll, X: dx, Y: dy})
	})
	w.win.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		w.push(platform.Event{Kind: platform.EventWindowResize, Width: width, Height: height})
	})
	w.win.SetPosCallback(func(_ *glfw.Window, x, y int) {
		w.push(platform.Event{Kind: platform.EventWindowMove, X: float64(x), Y: float64(y)})
	})
	w.win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		w.push(platform.Event{Kind: platform.EventWindowFocus, Focused: focused})
	})
	w.win.SetCloseCallback(func(_ *glfw.Window) {
		w.push(platform.Event{Kind: platform.EventWindowClose})
	})
}

func (w *Window) push(ev platform.Event) {
	ev.Time = timeNow()
	w.pending = append(w.pending, ev)
}

func (w *Window) Backend() string { return ID }

func (w *Window) Size() (int, int) {
	if w.destroyed {
		return 0, 0
	}
	return w.win.GetSize()
}

func (w *Window) SetSize(width, height int) error {
	if w.destroyed {
		return ErrDestroyed
	}
	w.win.SetSize(width, height)
	return nil
}

func (w *Window) Position() (int, int) {
	if w.destroyed {
		return 0, 0
	}
	return w.win.GetPos()
}

func (w *Window) SetPosition(x, y int) error {
	if w.destroyed {
		return ErrDestroyed
	}
	w.win.SetPos(x, y)
	return nil
}

func (w *Window) Title() string { return w.title }

func (w *Window) SetTitle(title string) error {
	if w.destroyed {
		return ErrDestroyed
	}
	w.win.SetTitle(title)
	w.title = title
	return nil
}

func (w *Window) Fullscreen() bool {
	if w.destroyed {
		return false
	}
	return w.win.GetMonitor() != nil
}

func (w *Window) ContextConfig() platform.ContextConfig { return w.config }

func (w *Window) Context() platform.Context { return glContext{w: w} }

// PumpEvents polls GLFW and returns the events queued by callbacks.
func (w *Window) PumpEvents() []platform.Event {
	if w.destroyed {
		return nil
	}
	glfw.PollEvents()
	out := w.pending
	w.pending = nil
	return out
}

func (w *Window) ShouldClose() bool {
	if w.destroyed {
		return true
	}
	return w.win.ShouldClose()
}

func (w *Window) Destroy() error {
	if w.destroyed {
		return ErrDestroyed
	}
	w.destroyed = true
	w.pending = nil
	w.win.Destroy()
	return nil
}

type glContext struct {
	w *Window
}

func (c glContext) MakeCurrent() error {
	if c.w.destroyed {
		return ErrDestroyed
	}
	c.w.win.MakeContextCurrent()
	return nil
}

func (c glContext) SwapBuffers() error {
	if c.w.destroyed {
		return ErrDestroyed
	}
	c.w.win.SwapBuffers()
	return nil
}

func (c glContext) Native() any { return c.w.win }

// Rebind makes the context of w current and reloads GL entry points. It
// is meant to run when the orchestrator reports resource invalidation.
// Windows from other backends are ignored.
func Rebind(w platform.Window) error {
	gw, ok := w.(*Window)
	if !ok {
		return nil
	}
	if err := gw.Context().MakeCurrent(); err != nil {
		return err
	}
	if err := gl.Init(); err != nil {
		return fmt.Errorf("glfw: gl init: %w", err)
	}
	return nil
}

// RendererInfo returns the GL vendor, renderer and version strings of the
// current context.
func RendererInfo() (vendor, renderer, version string) {
	return gl.GoStr(gl.GetString(gl.VENDOR)),
		gl.GoStr(gl.GetString(gl.RENDERER)),
		gl.GoStr(gl.GetString(gl.VERSION))
}
