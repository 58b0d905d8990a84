package hotswap

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/1broseidon/winswap/internal/eventbuf"
	"github.com/1broseidon/winswap/internal/platform"
)

const (
	DefaultTimeout = 5 * time.Second
	DefaultPreset  = "default"
)

// Config holds orchestrator settings.
type Config struct {
	// Timeout is the budget for a request that does not set its own.
	Timeout time.Duration
	// MaxBufferedEvents bounds the event buffer.
	MaxBufferedEvents int
	// Required is merged into the required features of every request.
	Required platform.FeatureSet
	Logger   *slog.Logger
}

var presets = map[string]Config{
	"default":  {Timeout: DefaultTimeout, MaxBufferedEvents: eventbuf.DefaultCapacity},
	"fast":     {Timeout: 500 * time.Millisecond, MaxBufferedEvents: 250},
	"reliable": {Timeout: 10 * time.Second, MaxBufferedEvents: 2000},
}

// Preset returns the named tuning preset.
func Preset(name string) (Config, error) {
	if name == "" {
		name = DefaultPreset
	}
	cfg, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown swap preset %q (available: %v)", name, PresetNames())
	}
	return cfg, nil
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxBufferedEvents <= 0 {
		c.MaxBufferedEvents = eventbuf.DefaultCapacity
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}
