// Package snapshot captures the transferable properties of a live window so
// an equivalent window can be built on another backend.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/1broseidon/winswap/internal/platform"
)

var (
	ErrNoWindow        = errors.New("snapshot: no window")
	ErrInvalidGeometry = errors.New("snapshot: invalid geometry")
)

// Snapshot is an immutable record of window state. The zero value is not a
// valid snapshot; use Capture.
type Snapshot struct {
	width, height int
	x, y          int
	title         string
	fullscreen    bool
	glMajor       int
	glMinor       int
	profile       platform.Profile
	samples       int
	doubleBuffer  bool
	source        string
}

// Capture reads w without mutating it.
func Capture(w platform.Window) (Snapshot, error) {
	if w == nil {
		return Snapshot{}, ErrNoWindow
	}
	width, height := w.Size()
	if width <= 0 || height <= 0 {
		return Snapshot{}, fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, width, height)
	}
	x, y := w.Position()
	cfg := w.ContextConfig()
	return Snapshot{
		width:        width,
		height:       height,
		x:            x,
		y:            y,
		title:        w.Title(),
		fullscreen:   w.Fullscreen(),
		glMajor:      cfg.GLMajor,
		glMinor:      cfg.GLMinor,
		profile:      cfg.Profile,
		samples:      cfg.Samples,
		doubleBuffer: cfg.DoubleBuffer,
		source:       w.Backend(),
	}, nil
}

func (s Snapshot) Width() int                { return s.width }
func (s Snapshot) Height() int               { return s.height }
func (s Snapshot) Position() (int, int)      { return s.x, s.y }
func (s Snapshot) Title() string             { return s.title }
func (s Snapshot) Fullscreen() bool          { return s.fullscreen }
func (s Snapshot) GLVersion() (int, int)     { return s.glMajor, s.glMinor }
func (s Snapshot) Profile() platform.Profile { return s.profile }
func (s Snapshot) Samples() int              { return s.samples }
func (s Snapshot) DoubleBuffer() bool        { return s.doubleBuffer }

// Source is the backend the snapshot was captured from. It is informational
// and excluded from Equal.
func (s Snapshot) Source() string { return s.source }

// Valid reports whether s came from a successful Capture.
func (s Snapshot) Valid() bool { return s.width > 0 && s.height > 0 }

// Hints converts the snapshot into creation hints for Registry.Create.
// Width, height and title are passed to Create directly.
func (s Snapshot) Hints() platform.Hints {
	hints := platform.Hints{
		{Key: platform.HintPositionX, Value: s.x},
		{Key: platform.HintPositionY, Value: s.y},
		platform.BoolHint(platform.HintFullscreen, s.fullscreen),
		{Key: platform.HintSamples, Value: s.samples},
		platform.BoolHint(platform.HintDoubleBuffer, s.doubleBuffer),
	}
	if s.glMajor > 0 {
		hints = append(hints,
			platform.Hint{Key: platform.HintContextVersionMajor, Value: s.glMajor},
			platform.Hint{Key: platform.HintContextVersionMinor, Value: s.glMinor},
			platform.Hint{Key: platform.HintOpenGLProfile, Value: int(s.profile)},
		)
	}
	return hints
}

// Equal compares every transferable property.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.width == o.width &&
		s.height == o.height &&
		s.x == o.x &&
		s.y == o.y &&
		s.title == o.title &&
		s.fullscreen == o.fullscreen &&
		s.glMajor == o.glMajor &&
		s.glMinor == o.glMinor &&
		s.profile == o.profile &&
		s.samples == o.samples &&
		s.doubleBuffer == o.doubleBuffer
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%dx%d+%d+%d %q fullscreen=%v gl=%d.%d/%s samples=%d doublebuffer=%v",
		s.width, s.height, s.x, s.y, s.title, s.fullscreen, s.glMajor, s.glMinor, s.profile, s.samples, s.doubleBuffer)
}
