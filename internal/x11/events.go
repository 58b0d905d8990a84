package x11

import (
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/winswap/internal/platform"
)

// keyLookup maps a keycode and modifier state to a keysym name.
type keyLookup func(state uint16, code xproto.Keycode) string

// translator converts raw X events for one window into platform events. It
// tracks geometry so ConfigureNotify can be split into resize and move.
type translator struct {
	window   xproto.Window
	lookup   keyLookup
	protocol xproto.Atom
	delete   xproto.Atom

	width, height int
	x, y          int
	lastRelease   *xproto.KeyReleaseEvent
}

// translate returns the platform events for ev. closed is set when the
// window manager asked the window to close.
func (t *translator) translate(ev xgb.Event, now time.Time) (out []platform.Event, closed bool) {
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		if e.Event != t.window {
			return nil, false
		}
		kind := platform.EventKeyPress
		// X auto-repeat sends a release immediately followed by a press with
		// the same timestamp and keycode.
		if r := t.lastRelease; r != nil && r.Detail == e.Detail && r.Time == e.Time {
			kind = platform.EventKeyRepeat
		}
		t.lastRelease = nil
		return []platform.Event{t.key(kind, e.Detail, e.State, now)}, false

	case xproto.KeyReleaseEvent:
		if e.Event != t.window {
			return nil, false
		}
		rel := e
		t.lastRelease = &rel
		return []platform.Event{t.key(platform.EventKeyRelease, e.Detail, e.State, now)}, false

	case xproto.ButtonPressEvent:
		if e.Event != t.window {
			return nil, false
		}
		if dx, dy, ok := scrollDelta(e.Detail); ok {
			return []platform.Event{{Kind: platform.EventMouseScroll, Time: now, X: dx, Y: dy, Mods: modifiers(e.State)}}, false
		}
		return []platform.Event{{
			Kind:   platform.EventMouseButtonPress,
			Time:   now,
			Button: int(e.Detail),
			X:      float64(e.EventX),
			Y:      float64(e.EventY),
			Mods:   modifiers(e.State),
		}}, false

	case xproto.ButtonReleaseEvent:
		if e.Event != t.window {
			return nil, false
		}
		if _, _, ok := scrollDelta(e.Detail); ok {
			return nil, false
		}
		return []platform.Event{{
			Kind:   platform.EventMouseButtonRelease,
			Time:   now,
			Button: int(e.Detail),
			X:      float64(e.EventX),
			Y:      float64(e.EventY),
			Mods:   modifiers(e.State),
		}}, false

	case xproto.MotionNotifyEvent:
		if e.Event != t.window {
			return nil, false
		}
		return []platform.Event{{
			Kind: platform.EventMouseMove,
			Time: now,
			X:    float64(e.EventX),
			Y:    float64(e.EventY),
			Mods: modifiers(e.State),
		}}, false

	case xproto.ConfigureNotifyEvent:
		if e.Window != t.window {
			return nil, false
		}
		w, h := int(e.Width), int(e.Height)
		if w != t.width || h != t.height {
			t.width, t.height = w, h
			out = append(out, platform.Event{Kind: platform.EventWindowResize, Time: now, Width: w, Height: h})
		}
		x, y := int(e.X), int(e.Y)
		if x != t.x || y != t.y {
			t.x, t.y = x, y
			out = append(out, platform.Event{Kind: platform.EventWindowMove, Time: now, X: float64(x), Y: float64(y)})
		}
		return out, false

	case xproto.FocusInEvent:
		if e.Event != t.window {
			return nil, false
		}
		return []platform.Event{{Kind: platform.EventWindowFocus, Time: now, Focused: true}}, false

	case xproto.FocusOutEvent:
		if e.Event != t.window {
			return nil, false
		}
		return []platform.Event{{Kind: platform.EventWindowFocus, Time: now, Focused: false}}, false

	case xproto.ClientMessageEvent:
		if e.Window != t.window || e.Type != t.protocol || e.Format != 32 {
			return nil, false
		}
		if len(e.Data.Data32) > 0 && xproto.Atom(e.Data.Data32[0]) == t.delete {
			return []platform.Event{{Kind: platform.EventWindowClose, Time: now}}, true
		}
	}
	return nil, false
}

func (t *translator) key(kind platform.EventKind, code xproto.Keycode, state uint16, now time.Time) platform.Event {
	ev := platform.Event{
		Kind: kind,
		Time: now,
		Code: int(code),
		Mods: modifiers(state),
	}
	if t.lookup != nil {
		ev.Key = t.lookup(state, code)
	}
	return ev
}

// scrollDelta maps the X11 wheel buttons 4-7.
func scrollDelta(button xproto.Button) (dx, dy float64, ok bool) {
	switch button {
	case 4:
		return 0, 1, true
	case 5:
		return 0, -1, true
	case 6:
		return -1, 0, true
	case 7:
		return 1, 0, true
	}
	return 0, 0, false
}

func modifiers(state uint16) platform.Modifier {
	var m platform.Modifier
	if state&xproto.ModMaskShift != 0 {
		m |= platform.ModShift
	}
	if state&xproto.ModMaskControl != 0 {
		m |= platform.ModControl
	}
	if state&xproto.ModMask1 != 0 {
		m |= platform.ModAlt
	}
	if state&xproto.ModMask4 != 0 {
		m |= platform.ModSuper
	}
	if state&xproto.ModMaskLock != 0 {
		m |= platform.ModCapsLock
	}
	if state&xproto.ModMask2 != 0 {
		m |= platform.ModNumLock
	}
	return m
}
