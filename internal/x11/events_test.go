package x11

import (
	"testing"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/winswap/internal/platform"
)

const testWin = xproto.Window(42)

func newTranslator() *translator {
	return &translator{
		window:   testWin,
		protocol: 100,
		delete:   101,
		lookup: func(state uint16, code xproto.Keycode) string {
			if code == 38 {
				return "a"
			}
			return ""
		},
		width:  640,
		height: 480,
	}
}

func TestTranslateKeys(t *testing.T) {
	tr := newTranslator()
	now := time.Unix(10, 0)

	out, _ := tr.translate(xproto.KeyPressEvent{Event: testWin, Detail: 38, Time: 5, State: xproto.ModMaskShift | xproto.ModMask4}, now)
	if len(out) != 1 {
		t.Fatalf("got %d events, want 1", len(out))
	}
	ev := out[0]
	if ev.Kind != platform.EventKeyPress || ev.Code != 38 || ev.Key != "a" {
		t.Fatalf("key press = %+v", ev)
	}
	if ev.Mods != platform.ModShift|platform.ModSuper {
		t.Fatalf("mods = %v, want shift|super", ev.Mods)
	}
	if !ev.Time.Equal(now) {
		t.Fatalf("time = %v, want %v", ev.Time, now)
	}

	// Auto-repeat: release and press share a timestamp.
	out, _ = tr.translate(xproto.KeyReleaseEvent{Event: testWin, Detail: 38, Time: 9}, now)
	if len(out) != 1 || out[0].Kind != platform.EventKeyRelease {
		t.Fatalf("release = %+v", out)
	}
	out, _ = tr.translate(xproto.KeyPressEvent{Event: testWin, Detail: 38, Time: 9}, now)
	if len(out) != 1 || out[0].Kind != platform.EventKeyRepeat {
		t.Fatalf("repeat = %+v", out)
	}

	// Other windows are ignored.
	if out, _ := tr.translate(xproto.KeyPressEvent{Event: 7, Detail: 38}, now); len(out) != 0 {
		t.Fatalf("foreign window produced %+v", out)
	}
}

func TestTranslateButtons(t *testing.T) {
	tr := newTranslator()
	now := time.Now()

	tests := []struct {
		name   string
		ev     interface{}
		kind   platform.EventKind
		button int
		dx, dy float64
		none   bool
	}{
		{"left press", xproto.ButtonPressEvent{Event: testWin, Detail: 1, EventX: 3, EventY: 4}, platform.EventMouseButtonPress, 1, 3, 4, false},
		{"left release", xproto.ButtonReleaseEvent{Event: testWin, Detail: 1, EventX: 3, EventY: 4}, platform.EventMouseButtonRelease, 1, 3, 4, false},
		{"wheel up", xproto.ButtonPressEvent{Event: testWin, Detail: 4}, platform.EventMouseScroll, 0, 0, 1, false},
		{"wheel right", xproto.ButtonPressEvent{Event: testWin, Detail: 7}, platform.EventMouseScroll, 0, 1, 0, false},
		{"wheel release dropped", xproto.ButtonReleaseEvent{Event: testWin, Detail: 5}, 0, 0, 0, 0, true},
		{"motion", xproto.MotionNotifyEvent{Event: testWin, EventX: 10, EventY: 20}, platform.EventMouseMove, 0, 10, 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out []platform.Event
			switch e := tt.ev.(type) {
			case xproto.ButtonPressEvent:
				out, _ = tr.translate(e, now)
			case xproto.ButtonReleaseEvent:
				out, _ = tr.translate(e, now)
			case xproto.MotionNotifyEvent:
				out, _ = tr.translate(e, now)
			}
			if tt.none {
				if len(out) != 0 {
					t.Fatalf("got %+v, want nothing", out)
				}
				return
			}
			if len(out) != 1 {
				t.Fatalf("got %d events, want 1", len(out))
			}
			ev := out[0]
			if ev.Kind != tt.kind || ev.Button != tt.button || ev.X != tt.dx || ev.Y != tt.dy {
				t.Fatalf("event = %+v", ev)
			}
		})
	}
}

func TestTranslateConfigure(t *testing.T) {
	tr := newTranslator()
	now := time.Now()

	out, _ := tr.translate(xproto.ConfigureNotifyEvent{Window: testWin, Width: 640, Height: 480}, now)
	if len(out) != 0 {
		t.Fatalf("unchanged geometry produced %+v", out)
	}

	out, _ = tr.translate(xproto.ConfigureNotifyEvent{Window: testWin, Width: 800, Height: 600, X: 5, Y: 6}, now)
	if len(out) != 2 {
		t.Fatalf("got %d events, want resize and move", len(out))
	}
	if out[0].Kind != platform.EventWindowResize || out[0].Width != 800 || out[0].Height != 600 {
		t.Fatalf("resize = %+v", out[0])
	}
	if out[1].Kind != platform.EventWindowMove || out[1].X != 5 || out[1].Y != 6 {
		t.Fatalf("move = %+v", out[1])
	}
	if tr.width != 800 || tr.height != 600 {
		t.Fatalf("tracked size = %dx%d", tr.width, tr.height)
	}
}

func TestTranslateCloseAndFocus(t *testing.T) {
	tr := newTranslator()
	now := time.Now()

	msg := xproto.ClientMessageEvent{
		Format: 32,
		Window: testWin,
		Type:   100,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{101, 0, 0, 0, 0}),
	}
	out, closed := tr.translate(msg, now)
	if !closed || len(out) != 1 || out[0].Kind != platform.EventWindowClose {
		t.Fatalf("close = %+v, closed=%v", out, closed)
	}

	msg.Type = 55
	if out, closed := tr.translate(msg, now); closed || len(out) != 0 {
		t.Fatalf("unrelated client message = %+v, closed=%v", out, closed)
	}

	out, _ = tr.translate(xproto.FocusInEvent{Event: testWin}, now)
	if len(out) != 1 || !out[0].Focused {
		t.Fatalf("focus in = %+v", out)
	}
	out, _ = tr.translate(xproto.FocusOutEvent{Event: testWin}, now)
	if len(out) != 1 || out[0].Focused {
		t.Fatalf("focus out = %+v", out)
	}
}

func TestDisplayAtAndIntersect(t *testing.T) {
	displays := []platform.Display{
		{ID: 0, Name: "DP-1", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
		{ID: 1, Name: "HDMI-1", Bounds: platform.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}},
	}

	d, ok := DisplayAt(displays, 2000, 100)
	if !ok || d.Name != "HDMI-1" {
		t.Fatalf("DisplayAt = %+v, %v", d, ok)
	}
	d, ok = DisplayAt(displays, -50, -50)
	if !ok || d.Name != "DP-1" {
		t.Fatalf("DisplayAt outside = %+v, %v; want first display", d, ok)
	}
	if _, ok := DisplayAt(nil, 0, 0); ok {
		t.Fatalf("DisplayAt(nil) should report false")
	}

	r, ok := intersect(displays[0].Bounds, platform.Rect{X: 0, Y: 30, Width: 4480, Height: 1410})
	if !ok || r != (platform.Rect{X: 0, Y: 30, Width: 1920, Height: 1050}) {
		t.Fatalf("intersect = %+v, %v", r, ok)
	}
	if _, ok := intersect(displays[0].Bounds, displays[1].Bounds); ok {
		t.Fatalf("adjacent displays should not intersect")
	}
}

func TestSetSizeWaitsForConfigureNotify(t *testing.T) {
	var requested [2]int
	w := &Window{
		tr:     *newTranslator(),
		resize: func(width, height int) { requested = [2]int{width, height} },
	}

	if err := w.SetSize(1024, 768); err != nil {
		t.Fatalf("SetSize: %v", err)
	}
	if requested != [2]int{1024, 768} {
		t.Fatalf("resize request = %v", requested)
	}
	if width, height := w.Size(); width != 640 || height != 480 {
		t.Fatalf("Size() before confirmation = %dx%d, want 640x480", width, height)
	}

	w.tr.translate(xproto.ConfigureNotifyEvent{Window: testWin, Width: 1000, Height: 700}, time.Now())
	if width, height := w.Size(); width != 1000 || height != 700 {
		t.Fatalf("Size() after ConfigureNotify = %dx%d, want the server's 1000x700", width, height)
	}

	if err := w.SetSize(0, 10); err == nil {
		t.Fatalf("SetSize(0, 10) should fail")
	}
}
