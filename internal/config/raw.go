package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winswap/internal/platform"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawSwapConfig struct {
	Preset            *string        `yaml:"preset"`
	Timeout           *time.Duration `yaml:"timeout"`
	MaxBufferedEvents *int           `yaml:"max_buffered_events"`
	TickInterval      *time.Duration `yaml:"tick_interval"`
}

type RawWindowConfig struct {
	Width        *int    `yaml:"width"`
	Height       *int    `yaml:"height"`
	X            *int    `yaml:"x"`
	Y            *int    `yaml:"y"`
	Title        *string `yaml:"title"`
	Fullscreen   *bool   `yaml:"fullscreen"`
	GLVersion    *string `yaml:"gl_version"`
	GLProfile    *string `yaml:"gl_profile"`
	Samples      *int    `yaml:"samples"`
	DoubleBuffer *bool   `yaml:"double_buffer"`
}

type RawHotkeyConfig struct {
	SwapNext     *string `yaml:"swap_next"`
	SwapPrevious *string `yaml:"swap_previous"`
	Cancel       *string `yaml:"cancel"`
}

type RawLoggingConfig struct {
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

type RawConfig struct {
	Include          IncludeList        `yaml:"include"`
	DefaultBackend   *string            `yaml:"default_backend"`
	Backends         []string           `yaml:"backends"`
	RequiredFeatures []platform.Feature `yaml:"required_features"`
	Swap             *RawSwapConfig     `yaml:"swap"`
	Window           *RawWindowConfig   `yaml:"window"`
	Hotkeys          *RawHotkeyConfig   `yaml:"hotkeys"`
	LogLevel         *string            `yaml:"log_level"`
	Logging          *RawLoggingConfig  `yaml:"logging"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.DefaultBackend != nil {
		out.DefaultBackend = overlay.DefaultBackend
	}
	// Lists replace rather than append so an include can be narrowed.
	if overlay.Backends != nil {
		out.Backends = overlay.Backends
	}
	if overlay.RequiredFeatures != nil {
		out.RequiredFeatures = overlay.RequiredFeatures
	}
	if overlay.Swap != nil {
		if out.Swap == nil {
			out.Swap = &RawSwapConfig{}
		}
		merged := mergeRawSwap(*out.Swap, *overlay.Swap)
		out.Swap = &merged
	}
	if overlay.Window != nil {
		if out.Window == nil {
			out.Window = &RawWindowConfig{}
		}
		merged := mergeRawWindow(*out.Window, *overlay.Window)
		out.Window = &merged
	}
	if overlay.Hotkeys != nil {
		if out.Hotkeys == nil {
			out.Hotkeys = &RawHotkeyConfig{}
		}
		merged := mergeRawHotkeys(*out.Hotkeys, *overlay.Hotkeys)
		out.Hotkeys = &merged
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Logging != nil {
		if out.Logging == nil {
			out.Logging = &RawLoggingConfig{}
		}
		merged := mergeRawLogging(*out.Logging, *overlay.Logging)
		out.Logging = &merged
	}

	return out
}

func mergeRawSwap(base RawSwapConfig, overlay RawSwapConfig) RawSwapConfig {
	out := base
	if overlay.Preset != nil {
		out.Preset = overlay.Preset
	}
	if overlay.Timeout != nil {
		out.Timeout = overlay.Timeout
	}
	if overlay.MaxBufferedEvents != nil {
		out.MaxBufferedEvents = overlay.MaxBufferedEvents
	}
	if overlay.TickInterval != nil {
		out.TickInterval = overlay.TickInterval
	}
	return out
}

func mergeRawWindow(base RawWindowConfig, overlay RawWindowConfig) RawWindowConfig {
	out := base
	if overlay.Width != nil {
		out.Width = overlay.Width
	}
	if overlay.Height != nil {
		out.Height = overlay.Height
	}
	if overlay.X != nil {
		out.X = overlay.X
	}
	if overlay.Y != nil {
		out.Y = overlay.Y
	}
	if overlay.Title != nil {
		out.Title = overlay.Title
	}
	if overlay.Fullscreen != nil {
		out.Fullscreen = overlay.Fullscreen
	}
	if overlay.GLVersion != nil {
		out.GLVersion = overlay.GLVersion
	}
	if overlay.GLProfile != nil {
		out.GLProfile = overlay.GLProfile
	}
	if overlay.Samples != nil {
		out.Samples = overlay.Samples
	}
	if overlay.DoubleBuffer != nil {
		out.DoubleBuffer = overlay.DoubleBuffer
	}
	return out
}

func mergeRawHotkeys(base RawHotkeyConfig, overlay RawHotkeyConfig) RawHotkeyConfig {
	out := base
	if overlay.SwapNext != nil {
		out.SwapNext = overlay.SwapNext
	}
	if overlay.SwapPrevious != nil {
		out.SwapPrevious = overlay.SwapPrevious
	}
	if overlay.Cancel != nil {
		out.Cancel = overlay.Cancel
	}
	return out
}

func mergeRawLogging(base RawLoggingConfig, overlay RawLoggingConfig) RawLoggingConfig {
	out := base
	if overlay.File != nil {
		out.File = overlay.File
	}
	if overlay.MaxSizeMB != nil {
		out.MaxSizeMB = overlay.MaxSizeMB
	}
	if overlay.MaxFiles != nil {
		out.MaxFiles = overlay.MaxFiles
	}
	return out
}
