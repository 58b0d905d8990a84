package platform

import (
	"fmt"
	"strings"
)

// Profile selects an OpenGL context profile.
type Profile int

const (
	ProfileAny Profile = iota
	ProfileCore
	ProfileCompat
)

func (p Profile) String() string {
	switch p {
	case ProfileCore:
		return "core"
	case ProfileCompat:
		return "compat"
	default:
		return "any"
	}
}

// ParseProfile converts "core", "compat"/"compatibility" or "any".
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return ProfileAny, nil
	case "core":
		return ProfileCore, nil
	case "compat", "compatibility":
		return ProfileCompat, nil
	default:
		return ProfileAny, fmt.Errorf("unknown OpenGL profile %q", s)
	}
}

// HintKey names a window creation hint.
type HintKey int

const (
	HintPositionX HintKey = iota
	HintPositionY
	HintFullscreen
	HintResizable
	HintVisible
	HintDecorated
	HintFocused
	HintFloating
	HintMaximized
	HintTransparent
	HintSamples
	HintDoubleBuffer
	HintRefreshRate
	HintContextVersionMajor
	HintContextVersionMinor
	HintOpenGLProfile
	HintOpenGLForwardCompat
)

var hintNames = map[HintKey]string{
	HintPositionX:           "position-x",
	HintPositionY:           "position-y",
	HintFullscreen:          "fullscreen",
	HintResizable:           "resizable",
	HintVisible:             "visible",
	HintDecorated:           "decorated",
	HintFocused:             "focused",
	HintFloating:            "floating",
	HintMaximized:           "maximized",
	HintTransparent:         "transparent",
	HintSamples:             "samples",
	HintDoubleBuffer:        "double-buffer",
	HintRefreshRate:         "refresh-rate",
	HintContextVersionMajor: "context-version-major",
	HintContextVersionMinor: "context-version-minor",
	HintOpenGLProfile:       "opengl-profile",
	HintOpenGLForwardCompat: "opengl-forward-compat",
}

func (k HintKey) String() string {
	if name, ok := hintNames[k]; ok {
		return name
	}
	return fmt.Sprintf("hint(%d)", int(k))
}

// Hint is a single key/value creation hint. Booleans are encoded as 0/1,
// the same way GLFW window hints are.
type Hint struct {
	Key   HintKey
	Value int
}

// Hints is an ordered hint list. Later entries override earlier ones.
type Hints []Hint

// BoolHint builds a boolean hint.
func BoolHint(key HintKey, v bool) Hint {
	if v {
		return Hint{Key: key, Value: 1}
	}
	return Hint{Key: key, Value: 0}
}

// Get returns the last value set for key.
func (h Hints) Get(key HintKey) (int, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Key == key {
			return h[i].Value, true
		}
	}
	return 0, false
}

// Int returns the value for key or def when absent.
func (h Hints) Int(key HintKey, def int) int {
	if v, ok := h.Get(key); ok {
		return v
	}
	return def
}

// Bool returns the value for key or def when absent.
func (h Hints) Bool(key HintKey, def bool) bool {
	if v, ok := h.Get(key); ok {
		return v != 0
	}
	return def
}

// Profile returns the requested OpenGL profile.
func (h Hints) Profile() Profile {
	return Profile(h.Int(HintOpenGLProfile, int(ProfileAny)))
}

// With returns a copy of h with extra appended.
func (h Hints) With(extra ...Hint) Hints {
	out := make(Hints, 0, len(h)+len(extra))
	out = append(out, h...)
	return append(out, extra...)
}
