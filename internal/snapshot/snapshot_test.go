package snapshot

import (
	"errors"
	"testing"

	"github.com/1broseidon/winswap/internal/headless"
	"github.com/1broseidon/winswap/internal/platform"
)

func newWindow(t *testing.T, backend string, hints platform.Hints) *headless.Window {
	t.Helper()
	w, err := headless.New(backend, 800, 600, "demo", hints)
	if err != nil {
		t.Fatalf("headless.New: %v", err)
	}
	t.Cleanup(func() {
		if !w.Destroyed() {
			w.Destroy()
		}
	})
	return w
}

func TestCapture_ReadsConvergedState(t *testing.T) {
	w := newWindow(t, "a", platform.Hints{
		{Key: platform.HintContextVersionMajor, Value: 3},
		{Key: platform.HintContextVersionMinor, Value: 3},
		{Key: platform.HintOpenGLProfile, Value: int(platform.ProfileCore)},
		{Key: platform.HintSamples, Value: 4},
	})
	if err := w.SetPosition(10, 20); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}

	s, err := Capture(w)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if s.Width() != 800 || s.Height() != 600 || s.Title() != "demo" {
		t.Fatalf("unexpected snapshot %v", s)
	}
	if x, y := s.Position(); x != 10 || y != 20 {
		t.Fatalf("position = %d,%d", x, y)
	}
	if major, minor := s.GLVersion(); major != 3 || minor != 3 {
		t.Fatalf("gl version = %d.%d", major, minor)
	}
	if s.Source() != "a" {
		t.Fatalf("source = %q", s.Source())
	}
}

func TestCapture_DoesNotConsumeEvents(t *testing.T) {
	w := newWindow(t, "a", nil)
	w.Inject(platform.Event{Kind: platform.EventKeyPress})
	if _, err := Capture(w); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if got := len(w.PumpEvents()); got != 1 {
		t.Fatalf("Capture must be a pure read; pending events = %d", got)
	}
}

func TestCapture_Errors(t *testing.T) {
	if _, err := Capture(nil); !errors.Is(err, ErrNoWindow) {
		t.Fatalf("Capture(nil) err = %v", err)
	}
}

func TestHints_RoundTripThroughBackend(t *testing.T) {
	src := newWindow(t, "a", platform.Hints{
		{Key: platform.HintContextVersionMajor, Value: 4},
		{Key: platform.HintContextVersionMinor, Value: 1},
		{Key: platform.HintOpenGLProfile, Value: int(platform.ProfileCore)},
		{Key: platform.HintSamples, Value: 8},
		platform.BoolHint(platform.HintDoubleBuffer, false),
		platform.BoolHint(platform.HintFullscreen, true),
	})
	_ = src.SetPosition(-5, 7)

	before, err := Capture(src)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	dst, err := headless.New("b", before.Width(), before.Height(), before.Title(), before.Hints())
	if err != nil {
		t.Fatalf("headless.New: %v", err)
	}
	defer dst.Destroy()

	after, err := Capture(dst)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !before.Equal(after) {
		t.Fatalf("snapshot changed across rebuild:\nbefore %v\nafter  %v", before, after)
	}
}

func TestHints_OmitsContextVersionWithoutGL(t *testing.T) {
	w := newWindow(t, "a", nil)
	s, err := Capture(w)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if _, ok := s.Hints().Get(platform.HintContextVersionMajor); ok {
		t.Fatalf("expected no context version hint for a non-GL window")
	}
}
