package platform

import (
	"fmt"
	"sort"
	"strings"
)

// Feature is a capability a backend may support.
type Feature string

const (
	FeatureOpenGL       Feature = "opengl"
	FeatureVulkan       Feature = "vulkan"
	FeatureDirectX      Feature = "directx"
	FeatureMultiWindow  Feature = "multi-window"
	FeatureHighDPI      Feature = "high-dpi"
	FeatureFullscreen   Feature = "fullscreen"
	FeatureTransparency Feature = "transparency"
	FeatureCustomCursor Feature = "custom-cursor"
	FeatureRawInput     Feature = "raw-input"
	FeatureMonitorInfo  Feature = "monitor-info"
)

// AllFeatures returns every known feature in declaration order.
func AllFeatures() []Feature {
	return []Feature{
		FeatureOpenGL,
		FeatureVulkan,
		FeatureDirectX,
		FeatureMultiWindow,
		FeatureHighDPI,
		FeatureFullscreen,
		FeatureTransparency,
		FeatureCustomCursor,
		FeatureRawInput,
		FeatureMonitorInfo,
	}
}

// ParseFeature converts a config/CLI spelling into a Feature. Matching is
// case-insensitive and accepts underscores in place of dashes.
func ParseFeature(s string) (Feature, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for _, f := range AllFeatures() {
		if string(f) == norm {
			return f, nil
		}
	}
	switch norm {
	case "gl":
		return FeatureOpenGL, nil
	case "hidpi", "highdpi":
		return FeatureHighDPI, nil
	}
	return "", fmt.Errorf("unknown window feature %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Feature) UnmarshalText(text []byte) error {
	parsed, err := ParseFeature(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// FeatureSet is an unordered set of features.
type FeatureSet map[Feature]struct{}

// NewFeatureSet builds a set from the given features.
func NewFeatureSet(features ...Feature) FeatureSet {
	fs := make(FeatureSet, len(features))
	for _, f := range features {
		fs[f] = struct{}{}
	}
	return fs
}

// ParseFeatureSet parses a comma separated list such as "opengl,high-dpi".
func ParseFeatureSet(s string) (FeatureSet, error) {
	fs := FeatureSet{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFeature(part)
		if err != nil {
			return nil, err
		}
		fs[f] = struct{}{}
	}
	return fs, nil
}

func (fs FeatureSet) Has(f Feature) bool {
	_, ok := fs[f]
	return ok
}

// Superset reports whether fs contains every feature in required.
func (fs FeatureSet) Superset(required FeatureSet) bool {
	return len(fs.Missing(required)) == 0
}

// Missing returns the features of required that fs lacks, sorted.
func (fs FeatureSet) Missing(required FeatureSet) []Feature {
	var missing []Feature
	for f := range required {
		if !fs.Has(f) {
			missing = append(missing, f)
		}
	}
	sortFeatures(missing)
	return missing
}

// Slice returns the features sorted by name.
func (fs FeatureSet) Slice() []Feature {
	out := make([]Feature, 0, len(fs))
	for f := range fs {
		out = append(out, f)
	}
	sortFeatures(out)
	return out
}

// Clone returns an independent copy.
func (fs FeatureSet) Clone() FeatureSet {
	out := make(FeatureSet, len(fs))
	for f := range fs {
		out[f] = struct{}{}
	}
	return out
}

// Union returns a new set holding the features of fs and other.
func (fs FeatureSet) Union(other FeatureSet) FeatureSet {
	out := fs.Clone()
	for f := range other {
		out[f] = struct{}{}
	}
	return out
}

func (fs FeatureSet) String() string {
	names := make([]string, 0, len(fs))
	for _, f := range fs.Slice() {
		names = append(names, string(f))
	}
	return strings.Join(names, ",")
}

func sortFeatures(fs []Feature) {
	sort.Slice(fs, func(i, j int) bool { return fs[i] < fs[j] })
}
