package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	default_backend
//	backends
//	required_features
//	swap.preset
//	swap.timeout
//	swap.max_buffered_events
//	swap.tick_interval
//	window.<field>
//	hotkeys.<field>
//	log_level
//	logging.file
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	// Preset-controlled values come from the preset unless overridden.
	if path == "swap.timeout" || path == "swap.max_buffered_events" {
		return value, Source{Kind: SourceBuiltin, Name: "preset:" + res.Config.Swap.Preset}, nil
	}

	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	unknown := fmt.Errorf("unknown path: %s", path)

	switch parts[0] {
	case "default_backend":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.DefaultBackend, nil
	case "backends":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.Backends, nil
	case "required_features":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.RequiredFeatures, nil
	case "log_level":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.LogLevel, nil
	case "swap":
		if len(parts) == 1 {
			return cfg.Swap, nil
		}
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "preset":
			return cfg.Swap.Preset, nil
		case "timeout":
			return cfg.Swap.Timeout, nil
		case "max_buffered_events":
			return cfg.Swap.MaxBufferedEvents, nil
		case "tick_interval":
			return cfg.Swap.TickInterval, nil
		}
	case "window":
		if len(parts) == 1 {
			return cfg.Window, nil
		}
		if len(parts) != 2 {
			return nil, unknown
		}
		w := cfg.Window
		switch parts[1] {
		case "width":
			return w.Width, nil
		case "height":
			return w.Height, nil
		case "x":
			return w.X, nil
		case "y":
			return w.Y, nil
		case "title":
			return w.Title, nil
		case "fullscreen":
			return w.Fullscreen, nil
		case "gl_version":
			return w.GLVersion, nil
		case "gl_profile":
			return w.GLProfile, nil
		case "samples":
			return w.Samples, nil
		case "double_buffer":
			return w.DoubleBuffer, nil
		}
	case "hotkeys":
		if len(parts) == 1 {
			return cfg.Hotkeys, nil
		}
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "swap_next":
			return cfg.Hotkeys.SwapNext, nil
		case "swap_previous":
			return cfg.Hotkeys.SwapPrevious, nil
		case "cancel":
			return cfg.Hotkeys.Cancel, nil
		}
	case "logging":
		logging := cfg.GetLoggingConfig()
		if len(parts) == 1 {
			return logging, nil
		}
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "file":
			return logging.File, nil
		case "max_size_mb":
			return logging.MaxSizeMB, nil
		case "max_files":
			return logging.MaxFiles, nil
		}
	}
	return nil, unknown
}
