package config

import (
	"fmt"
	"sort"

	"github.com/1broseidon/winswap/internal/hotswap"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw over the defaults. The swap preset is
// applied first so explicit timeout and max_buffered_events win over it.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.DefaultBackend != nil {
		cfg.DefaultBackend = *raw.DefaultBackend
	}
	if raw.Backends != nil {
		cfg.Backends = append([]string(nil), raw.Backends...)
	}
	if raw.RequiredFeatures != nil {
		cfg.RequiredFeatures = dedupeFeatures(raw.RequiredFeatures)
	}

	if raw.Swap != nil {
		if raw.Swap.Preset != nil {
			preset, err := hotswap.Preset(*raw.Swap.Preset)
			if err != nil {
				return nil, &ValidationError{Path: "swap.preset", Err: err}
			}
			cfg.Swap.Preset = *raw.Swap.Preset
			cfg.Swap.Timeout = preset.Timeout
			cfg.Swap.MaxBufferedEvents = preset.MaxBufferedEvents
		}
		if raw.Swap.Timeout != nil {
			cfg.Swap.Timeout = *raw.Swap.Timeout
		}
		if raw.Swap.MaxBufferedEvents != nil {
			cfg.Swap.MaxBufferedEvents = *raw.Swap.MaxBufferedEvents
		}
		if raw.Swap.TickInterval != nil {
			cfg.Swap.TickInterval = *raw.Swap.TickInterval
		}
	}

	if w := raw.Window; w != nil {
		if w.Width != nil {
			cfg.Window.Width = *w.Width
		}
		if w.Height != nil {
			cfg.Window.Height = *w.Height
		}
		if w.X != nil {
			cfg.Window.X = *w.X
		}
		if w.Y != nil {
			cfg.Window.Y = *w.Y
		}
		if w.Title != nil {
			cfg.Window.Title = *w.Title
		}
		if w.Fullscreen != nil {
			cfg.Window.Fullscreen = *w.Fullscreen
		}
		if w.GLVersion != nil {
			cfg.Window.GLVersion = *w.GLVersion
		}
		if w.GLProfile != nil {
			cfg.Window.GLProfile = *w.GLProfile
		}
		if w.Samples != nil {
			cfg.Window.Samples = *w.Samples
		}
		if w.DoubleBuffer != nil {
			cfg.Window.DoubleBuffer = *w.DoubleBuffer
		}
	}

	if raw.Hotkeys != nil {
		if raw.Hotkeys.SwapNext != nil {
			cfg.Hotkeys.SwapNext = *raw.Hotkeys.SwapNext
		}
		if raw.Hotkeys.SwapPrevious != nil {
			cfg.Hotkeys.SwapPrevious = *raw.Hotkeys.SwapPrevious
		}
		if raw.Hotkeys.Cancel != nil {
			cfg.Hotkeys.Cancel = *raw.Hotkeys.Cancel
		}
	}

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Logging != nil {
		if raw.Logging.File != nil {
			cfg.Logging.File = *raw.Logging.File
		}
		if raw.Logging.MaxSizeMB != nil {
			cfg.Logging.MaxSizeMB = *raw.Logging.MaxSizeMB
		}
		if raw.Logging.MaxFiles != nil {
			cfg.Logging.MaxFiles = *raw.Logging.MaxFiles
		}
	}

	return cfg, nil
}

func dedupeFeatures[T ~string](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
