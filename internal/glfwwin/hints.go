//go:build glfw

package glfwwin

import (
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/1broseidon/winswap/internal/platform"
)

var timeNow = time.Now

type glfwHint struct {
	hint  glfw.Hint
	value int
}

var hintMap = map[platform.HintKey]glfw.Hint{
	platform.HintResizable:           glfw.Resizable,
	platform.HintVisible:             glfw.Visible,
	platform.HintDecorated:           glfw.Decorated,
	platform.HintFocused:             glfw.Focused,
	platform.HintFloating:            glfw.Floating,
	platform.HintMaximized:           glfw.Maximized,
	platform.HintTransparent:         glfw.TransparentFramebuffer,
	platform.HintSamples:             glfw.Samples,
	platform.HintDoubleBuffer:        glfw.DoubleBuffer,
	platform.HintRefreshRate:         glfw.RefreshRate,
	platform.HintContextVersionMajor: glfw.ContextVersionMajor,
	platform.HintContextVersionMinor: glfw.ContextVersionMinor,
	platform.HintOpenGLForwardCompat: glfw.OpenGLForwardCompatible,
}

// windowHints converts platform hints into GLFW window hints in order.
// Position and fullscreen are applied at creation instead.
func windowHints(hints platform.Hints) []glfwHint {
	var out []glfwHint
	for _, h := range hints {
		if h.Key == platform.HintOpenGLProfile {
			out = append(out, glfwHint{hint: glfw.OpenGLProfile, value: toGLFWProfile(platform.Profile(h.Value))})
			continue
		}
		if gh, ok := hintMap[h.Key]; ok {
			out = append(out, glfwHint{hint: gh, value: h.Value})
		}
	}
	return out
}

func toGLFWProfile(p platform.Profile) int {
	switch p {
	case platform.ProfileCore:
		return glfw.OpenGLCoreProfile
	case platform.ProfileCompat:
		return glfw.OpenGLCompatProfile
	default:
		return glfw.OpenGLAnyProfile
	}
}

func fromGLFWProfile(v int) platform.Profile {
	switch v {
	case glfw.OpenGLCoreProfile:
		return platform.ProfileCore
	case glfw.OpenGLCompatProfile:
		return platform.ProfileCompat
	default:
		return platform.ProfileAny
	}
}

func modifiers(m glfw.ModifierKey) platform.Modifier {
	var out platform.Modifier
	if m&glfw.ModShift != 0 {
		out |= platform.ModShift
	}
	if m&glfw.ModControl != 0 {
		out |= platform.ModControl
	}
	if m&glfw.ModAlt != 0 {
		out |= platform.ModAlt
	}
	if m&glfw.ModSuper != 0 {
		out |= platform.ModSuper
	}
	if m&glfw.ModCapsLock != 0 {
		out |= platform.ModCapsLock
	}
	if m&glfw.ModNumLock != 0 {
		out |= platform.ModNumLock
	}
	return out
}
