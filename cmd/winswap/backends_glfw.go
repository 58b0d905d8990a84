//go:build glfw

package main

import (
	"log/slog"
	"runtime"

	"github.com/1broseidon/winswap/internal/glfwwin"
	"github.com/1broseidon/winswap/internal/platform"
)

func init() {
	// GLFW must be driven from the main thread.
	runtime.LockOSThread()

	compiledBackends = append(compiledBackends, backend{
		id:       glfwwin.ID,
		name:     "GLFW",
		version:  glfwwin.Version,
		features: glfwwin.Features,
		factory:  glfwwin.Factory,
		setup: func() (func(), error) {
			if err := glfwwin.Init(); err != nil {
				return nil, err
			}
			return glfwwin.Terminate, nil
		},
		rebind: rebindGL,
		rank:   2,
	})
}

func rebindGL(w platform.Window) error {
	if w.Backend() != glfwwin.ID {
		return nil
	}
	if err := glfwwin.Rebind(w); err != nil {
		return err
	}
	vendor, renderer, version := glfwwin.RendererInfo()
	slog.Debug("gl context rebound", "vendor", vendor, "renderer", renderer, "version", version)
	return nil
}
