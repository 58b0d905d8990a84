package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/winswap/internal/platform"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(data)+"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Swap.Timeout != 5*time.Second || cfg.Swap.MaxBufferedEvents != 1000 {
		t.Fatalf("unexpected swap defaults %+v", cfg.Swap)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
	if res.Config.Window.Title != DefaultWindowTitle {
		t.Fatalf("expected default title, got %q", res.Config.Window.Title)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Swap.Preset != "default" {
		t.Fatalf("expected default preset, got %q", res.Config.Swap.Preset)
	}
}

func TestLoadFromPath_FullDocument(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
default_backend: glfw
backends: [glfw, x11, headless]
required_features: [opengl, HighDPI, opengl]
swap:
  timeout: 2s
  tick_interval: 10ms
window:
  width: 1280
  height: 720
  x: 15
  title: "demo"
  gl_version: "4.1"
  gl_profile: core
  samples: 4
hotkeys:
  swap_next: "Mod4-n"
log_level: debug
`)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.DefaultBackend != "glfw" || !cfg.BackendEnabled("x11") || cfg.BackendEnabled("wayland") {
		t.Fatalf("unexpected backends: default %q list %v", cfg.DefaultBackend, cfg.Backends)
	}
	want := []platform.Feature{platform.FeatureHighDPI, platform.FeatureOpenGL}
	if len(cfg.RequiredFeatures) != 2 || cfg.RequiredFeatures[0] != want[0] || cfg.RequiredFeatures[1] != want[1] {
		t.Fatalf("required_features = %v, want %v", cfg.RequiredFeatures, want)
	}
	if cfg.Swap.Timeout != 2*time.Second || cfg.Swap.TickInterval != 10*time.Millisecond {
		t.Fatalf("swap = %+v", cfg.Swap)
	}
	if cfg.Swap.MaxBufferedEvents != 1000 {
		t.Fatalf("max_buffered_events should keep the preset value, got %d", cfg.Swap.MaxBufferedEvents)
	}
	if cfg.Hotkeys.SwapNext != "Mod4-n" || cfg.Hotkeys.Cancel == "" {
		t.Fatalf("hotkeys = %+v", cfg.Hotkeys)
	}

	hints, err := cfg.WindowHints()
	if err != nil {
		t.Fatalf("WindowHints: %v", err)
	}
	if hints.Int(platform.HintContextVersionMajor, 0) != 4 || hints.Int(platform.HintContextVersionMinor, 0) != 1 {
		t.Fatalf("context version hints = %v", hints)
	}
	if hints.Profile() != platform.ProfileCore || hints.Int(platform.HintSamples, 0) != 4 {
		t.Fatalf("hints = %v", hints)
	}
	if hints.Int(platform.HintPositionX, 0) != 15 || !hints.Bool(platform.HintDoubleBuffer, false) {
		t.Fatalf("hints = %v", hints)
	}

	hcfg := cfg.HotswapConfig(nil)
	if hcfg.Timeout != 2*time.Second || len(hcfg.Required) != 0 {
		t.Fatalf("HotswapConfig = %+v, want timeout only", hcfg)
	}
}

func TestLoadFromPath_PresetThenOverride(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		timeout time.Duration
		events  int
	}{
		{"fast", "swap:\n  preset: fast", 500 * time.Millisecond, 250},
		{"reliable", "swap:\n  preset: reliable", 10 * time.Second, 2000},
		{"override", "swap:\n  preset: fast\n  max_buffered_events: 64", 500 * time.Millisecond, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.yaml", tt.data)
			res, err := LoadFromPath(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if res.Config.Swap.Timeout != tt.timeout || res.Config.Swap.MaxBufferedEvents != tt.events {
				t.Fatalf("swap = %+v", res.Config.Swap)
			}
		})
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_UnknownFeatureErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "required_features: [teleport]")
	if _, err := LoadFromPath(path); err == nil || !strings.Contains(err.Error(), "teleport") {
		t.Fatalf("expected unknown feature error, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
	}{
		{"unknown preset", "swap:\n  preset: turbo", "swap.preset"},
		{"zero timeout", "swap:\n  timeout: 0s", "swap.timeout"},
		{"bad gl version", "window:\n  gl_version: four", "window.gl_version"},
		{"bad profile", "window:\n  gl_profile: es", "window.gl_profile"},
		{"default not enabled", "default_backend: glfw\nbackends: [x11]", "default_backend"},
		{"log level", "log_level: verbose", "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.yaml", tt.data)
			_, err := LoadFromPath(path)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("error path = %q, want %q", verr.Path, tt.path)
			}
			if verr.Source.Kind == SourceFile && !strings.Contains(err.Error(), path+":") {
				t.Fatalf("expected file:line:col prefix, got %v", err)
			}
		})
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, configD, "10-base.yaml", "window:\n  width: 500\n  title: base")
	writeConfig(t, configD, "20-override.yaml", "window:\n  width: 600")

	path := writeConfig(t, dir, "config.yaml", `
include:
  - config.d
window:
  height: 400
`)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w := res.Config.Window
	if w.Width != 600 || w.Height != 400 || w.Title != "base" {
		t.Fatalf("window = %+v", w)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "include:\n  - missing.yaml")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := writeConfig(t, dir, "a.yaml", "include: b.yaml")
	writeConfig(t, dir, "b.yaml", "include: a.yaml")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "swap:\n  preset: fast\nwindow:\n  title: demo")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "window.title")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != "demo" || src.Kind != SourceFile || src.Line != 4 {
		t.Fatalf("window.title = %#v from %#v", val, src)
	}

	val, src, err = Explain(res, "swap.timeout")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 500*time.Millisecond || src.Kind != SourceBuiltin || src.Name != "preset:fast" {
		t.Fatalf("swap.timeout = %#v from %#v", val, src)
	}

	if _, src, _ := Explain(res, "window.width"); src.Kind != SourceDefault {
		t.Fatalf("window.width source = %#v", src)
	}
	if _, _, err := Explain(res, "window.depth"); err == nil {
		t.Fatalf("expected unknown path error")
	}
}

func TestGetLoggingConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := DefaultConfig()
	got := cfg.GetLoggingConfig()
	if got.File != "/home/tester/.local/share/winswap/winswap.log" {
		t.Fatalf("File = %q", got.File)
	}
	if got.MaxSizeMB != 10 || got.MaxFiles != 3 {
		t.Fatalf("logging = %+v", got)
	}
}

func TestParseGLVersion(t *testing.T) {
	tests := []struct {
		in           string
		major, minor int
		wantErr      bool
	}{
		{"", 0, 0, false},
		{"3.3", 3, 3, false},
		{"4", 4, 0, false},
		{" 2.1 ", 2, 1, false},
		{"0.1", 0, 0, true},
		{"x.y", 0, 0, true},
		{"3.-1", 0, 0, true},
	}
	for _, tt := range tests {
		major, minor, err := ParseGLVersion(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseGLVersion(%q) err = %v", tt.in, err)
		}
		if !tt.wantErr && (major != tt.major || minor != tt.minor) {
			t.Fatalf("ParseGLVersion(%q) = %d.%d", tt.in, major, minor)
		}
	}
}

func TestDefaultConfigPath_Env(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got, _ := DefaultConfigPath(); got != "/xdg/winswap/config.yaml" {
		t.Fatalf("DefaultConfigPath() = %q", got)
	}

	t.Setenv(EnvConfigPath, "/etc/winswap.yaml")
	if got, _ := DefaultConfigPath(); got != "/etc/winswap.yaml" {
		t.Fatalf("DefaultConfigPath() with %s = %q", EnvConfigPath, got)
	}
}
