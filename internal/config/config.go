package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/1broseidon/winswap/internal/hotswap"
	"github.com/1broseidon/winswap/internal/platform"
)

const (
	DefaultTickInterval = 16 * time.Millisecond
	DefaultWindowWidth  = 800
	DefaultWindowHeight = 600
	DefaultWindowTitle  = "winswap"
)

// SwapConfig tunes the hot-swap orchestrator. Timeout and
// MaxBufferedEvents start from the selected preset.
type SwapConfig struct {
	Preset            string        `yaml:"preset"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxBufferedEvents int           `yaml:"max_buffered_events"`
	TickInterval      time.Duration `yaml:"tick_interval"`
}

// WindowConfig describes the initial window. Swaps carry the live window
// state forward, so these values only apply at startup.
type WindowConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	X            int    `yaml:"x"`
	Y            int    `yaml:"y"`
	Title        string `yaml:"title"`
	Fullscreen   bool   `yaml:"fullscreen"`
	GLVersion    string `yaml:"gl_version,omitempty"` // "major.minor", empty for no GL context
	GLProfile    string `yaml:"gl_profile,omitempty"` // any, core, compat
	Samples      int    `yaml:"samples"`
	DoubleBuffer bool   `yaml:"double_buffer"`
}

// HotkeyConfig binds global X11 keys to swap actions. Empty disables a
// binding.
type HotkeyConfig struct {
	SwapNext     string `yaml:"swap_next"`
	SwapPrevious string `yaml:"swap_previous"`
	Cancel       string `yaml:"cancel"`
}

// LoggingConfig configures the daemon log file.
type LoggingConfig struct {
	// File is the log path (default: ~/.local/share/winswap/winswap.log).
	// "-" logs to stderr only.
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the size that triggers rotation (default: 10).
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files kept (default: 3).
	MaxFiles int `yaml:"max_files,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	// DefaultBackend is the backend the window starts on. Empty selects
	// the first registered backend.
	DefaultBackend string `yaml:"default_backend"`
	// Backends restricts the compiled-in backends offered at runtime.
	// Empty enables all of them.
	Backends         []string           `yaml:"backends"`
	RequiredFeatures []platform.Feature `yaml:"required_features"`
	Swap             SwapConfig         `yaml:"swap"`
	Window           WindowConfig       `yaml:"window"`
	Hotkeys          HotkeyConfig       `yaml:"hotkeys"`
	LogLevel         string             `yaml:"log_level"`
	Logging          LoggingConfig      `yaml:"logging,omitempty"`
}

func DefaultConfig() *Config {
	preset, _ := hotswap.Preset(hotswap.DefaultPreset)
	return &Config{
		Swap: SwapConfig{
			Preset:            hotswap.DefaultPreset,
			Timeout:           preset.Timeout,
			MaxBufferedEvents: preset.MaxBufferedEvents,
			TickInterval:      DefaultTickInterval,
		},
		Window: WindowConfig{
			Width:        DefaultWindowWidth,
			Height:       DefaultWindowHeight,
			Title:        DefaultWindowTitle,
			DoubleBuffer: true,
		},
		Hotkeys: HotkeyConfig{
			SwapNext:     "Mod4-Mod1-bracketright",
			SwapPrevious: "Mod4-Mod1-bracketleft",
			Cancel:       "Mod4-Mod1-Escape",
		},
		LogLevel: "info",
	}
}

// BackendEnabled reports whether id may be registered.
func (c *Config) BackendEnabled(id string) bool {
	if len(c.Backends) == 0 {
		return true
	}
	for _, b := range c.Backends {
		if b == id {
			return true
		}
	}
	return false
}

// RequiredFeatureSet returns required_features as a set.
func (c *Config) RequiredFeatureSet() platform.FeatureSet {
	return platform.NewFeatureSet(c.RequiredFeatures...)
}

// HotswapConfig converts the swap settings for hotswap.New. Required
// features are left out: the daemon adds the live required_features to
// each request so a reload can both add and remove them.
func (c *Config) HotswapConfig(logger *slog.Logger) hotswap.Config {
	return hotswap.Config{
		Timeout:           c.Swap.Timeout,
		MaxBufferedEvents: c.Swap.MaxBufferedEvents,
		Logger:            logger,
	}
}

// WindowHints converts the window section into creation hints.
func (c *Config) WindowHints() (platform.Hints, error) {
	w := c.Window
	hints := platform.Hints{
		{Key: platform.HintPositionX, Value: w.X},
		{Key: platform.HintPositionY, Value: w.Y},
		platform.BoolHint(platform.HintFullscreen, w.Fullscreen),
		{Key: platform.HintSamples, Value: w.Samples},
		platform.BoolHint(platform.HintDoubleBuffer, w.DoubleBuffer),
	}
	major, minor, err := ParseGLVersion(w.GLVersion)
	if err != nil {
		return nil, err
	}
	if major > 0 {
		profile, err := platform.ParseProfile(w.GLProfile)
		if err != nil {
			return nil, err
		}
		hints = append(hints,
			platform.Hint{Key: platform.HintContextVersionMajor, Value: major},
			platform.Hint{Key: platform.HintContextVersionMinor, Value: minor},
			platform.Hint{Key: platform.HintOpenGLProfile, Value: int(profile)},
		)
	}
	return hints, nil
}

// ParseGLVersion parses "major.minor". Empty returns 0, 0.
func ParseGLVersion(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	majorStr, minorStr, ok := strings.Cut(s, ".")
	if !ok {
		minorStr = "0"
	}
	major, err := strconv.Atoi(majorStr)
	if err != nil || major <= 0 {
		return 0, 0, fmt.Errorf("invalid OpenGL version %q", s)
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil || minor < 0 {
		return 0, 0, fmt.Errorf("invalid OpenGL version %q", s)
	}
	return major, minor, nil
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{}
	}
	cfg := c.Logging
	if cfg.File == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = os.Getenv("HOME")
		}
		if home == "" {
			home = "."
		}
		cfg.File = filepath.Join(home, ".local/share/winswap/winswap.log")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	return cfg
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Backends))
	for i, id := range c.Backends {
		if strings.TrimSpace(id) == "" {
			return &ValidationError{Path: "backends", Err: fmt.Errorf("entry %d is empty", i)}
		}
		if _, dup := seen[id]; dup {
			return &ValidationError{Path: "backends", Err: fmt.Errorf("backend %q listed twice", id)}
		}
		seen[id] = struct{}{}
	}
	if c.DefaultBackend != "" && !c.BackendEnabled(c.DefaultBackend) {
		return &ValidationError{Path: "default_backend", Err: fmt.Errorf("default_backend %q is not in backends", c.DefaultBackend)}
	}

	if _, err := hotswap.Preset(c.Swap.Preset); err != nil {
		return &ValidationError{Path: "swap.preset", Err: err}
	}
	if c.Swap.Timeout <= 0 {
		return &ValidationError{Path: "swap.timeout", Err: fmt.Errorf("timeout must be > 0")}
	}
	if c.Swap.MaxBufferedEvents <= 0 {
		return &ValidationError{Path: "swap.max_buffered_events", Err: fmt.Errorf("max_buffered_events must be > 0")}
	}
	if c.Swap.TickInterval <= 0 {
		return &ValidationError{Path: "swap.tick_interval", Err: fmt.Errorf("tick_interval must be > 0")}
	}
	if c.Swap.TickInterval >= c.Swap.Timeout {
		return &ValidationError{Path: "swap.tick_interval", Err: fmt.Errorf("tick_interval %s must be shorter than timeout %s", c.Swap.TickInterval, c.Swap.Timeout)}
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return &ValidationError{Path: "window", Err: fmt.Errorf("width and height must be > 0")}
	}
	if c.Window.Samples < 0 {
		return &ValidationError{Path: "window.samples", Err: fmt.Errorf("samples must be >= 0")}
	}
	if _, _, err := ParseGLVersion(c.Window.GLVersion); err != nil {
		return &ValidationError{Path: "window.gl_version", Err: err}
	}
	if _, err := platform.ParseProfile(c.Window.GLProfile); err != nil {
		return &ValidationError{Path: "window.gl_profile", Err: err}
	}

	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}

	if warnings := c.validationWarnings(); len(warnings) > 0 {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}
	return nil
}

func (c *Config) validationWarnings() []string {
	var warnings []string
	if c.Window.GLVersion == "" && c.Window.GLProfile != "" {
		warnings = append(warnings, fmt.Sprintf("window.gl_profile %q has no effect without window.gl_version", c.Window.GLProfile))
	}
	keys := map[string]string{}
	for name, key := range map[string]string{
		"swap_next":     c.Hotkeys.SwapNext,
		"swap_previous": c.Hotkeys.SwapPrevious,
		"cancel":        c.Hotkeys.Cancel,
	} {
		if key == "" {
			continue
		}
		if other, ok := keys[key]; ok {
			warnings = append(warnings, fmt.Sprintf("hotkeys.%s and hotkeys.%s share %q; only one will fire", other, name, key))
		}
		keys[key] = name
	}
	return warnings
}
