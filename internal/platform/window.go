// Package platform defines the backend-neutral window capability contract
// shared by the hot-swap core and every concrete window backend.
package platform

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// ContextConfig is the graphics configuration a window actually negotiated
// with its native backend. Backends report negotiated values, not requests.
type ContextConfig struct {
	GLMajor      int
	GLMinor      int
	Profile      Profile
	Samples      int
	DoubleBuffer bool
}

// Context is the graphics-context handle an application rebinds to after a
// swap. Native returns the backend specific handle (a *glfw.Window, an X11
// window id, ...).
type Context interface {
	MakeCurrent() error
	SwapBuffers() error
	Native() any
}

// Window is the capability every backend window must provide. A Window is
// owned by a single goroutine, the one that pumps its events.
type Window interface {
	// Backend returns the id of the backend that created the window.
	Backend() string

	// Size returns the converged client-area size.
	Size() (width, height int)
	SetSize(width, height int) error
	// Position returns the converged top-left position.
	Position() (x, y int)
	SetPosition(x, y int) error
	Title() string
	SetTitle(title string) error
	Fullscreen() bool

	ContextConfig() ContextConfig
	Context() Context

	// PumpEvents processes pending native events and returns them in
	// arrival order. It never blocks.
	PumpEvents() []Event
	ShouldClose() bool

	// Destroy releases every native resource held by the window. The
	// window must not be used afterwards.
	Destroy() error
}
