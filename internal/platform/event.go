package platform

import (
	"fmt"
	"time"
)

// EventKind classifies an Event.
type EventKind int

const (
	EventKeyPress EventKind = iota
	EventKeyRelease
	EventKeyRepeat
	EventMouseMove
	EventMouseButtonPress
	EventMouseButtonRelease
	EventMouseScroll
	EventWindowResize
	EventWindowMove
	EventWindowClose
	EventWindowFocus
	EventTick
	EventCustom
)

var eventKindNames = [...]string{
	EventKeyPress:           "key-press",
	EventKeyRelease:         "key-release",
	EventKeyRepeat:          "key-repeat",
	EventMouseMove:          "mouse-move",
	EventMouseButtonPress:   "mouse-press",
	EventMouseButtonRelease: "mouse-release",
	EventMouseScroll:        "mouse-scroll",
	EventWindowResize:       "window-resize",
	EventWindowMove:         "window-move",
	EventWindowClose:        "window-close",
	EventWindowFocus:        "window-focus",
	EventTick:               "tick",
	EventCustom:             "custom",
}

func (k EventKind) String() string {
	if int(k) >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// IsWindow reports whether the kind describes window geometry or lifecycle.
func (k EventKind) IsWindow() bool {
	switch k {
	case EventWindowResize, EventWindowMove, EventWindowClose, EventWindowFocus:
		return true
	}
	return false
}

// Modifier is a bit set of keyboard modifiers.
type Modifier uint16

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModAlt
	ModSuper
	ModCapsLock
	ModNumLock
)

// Event is a backend-agnostic input or window event. Fields that do not
// apply to Kind are left zero.
type Event struct {
	Kind EventKind
	Time time.Time

	// Keyboard. Code is the backend scancode/keycode, Key a portable name
	// when the backend can provide one.
	Code int
	Key  string
	Mods Modifier

	// Pointer position or scroll offsets.
	X, Y   float64
	Button int

	// Geometry for resize/move events. Focused for focus events.
	Width, Height int
	Focused       bool

	// Name and Data carry application defined payloads for EventCustom.
	Name string
	Data any

	// Replayed is set when the event was buffered during a backend swap and
	// delivered afterwards.
	Replayed bool
}

func (e Event) String() string {
	switch e.Kind {
	case EventKeyPress, EventKeyRelease, EventKeyRepeat:
		return fmt.Sprintf("%s code=%d key=%q", e.Kind, e.Code, e.Key)
	case EventMouseMove, EventMouseScroll:
		return fmt.Sprintf("%s x=%.1f y=%.1f", e.Kind, e.X, e.Y)
	case EventMouseButtonPress, EventMouseButtonRelease:
		return fmt.Sprintf("%s button=%d", e.Kind, e.Button)
	case EventWindowResize:
		return fmt.Sprintf("%s %dx%d", e.Kind, e.Width, e.Height)
	case EventWindowMove:
		return fmt.Sprintf("%s x=%.0f y=%.0f", e.Kind, e.X, e.Y)
	case EventCustom:
		return fmt.Sprintf("%s name=%q", e.Kind, e.Name)
	default:
		return e.Kind.String()
	}
}
