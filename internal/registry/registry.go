// Package registry maps backend identifiers to window constructors and the
// static feature set each backend supports.
package registry

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/winswap/internal/platform"
)

var (
	ErrDuplicateBackend   = errors.New("backend already registered")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrConstructionFailed = errors.New("backend construction failed")
)

// ConstructionError reports a factory failure. It matches
// ErrConstructionFailed with errors.Is and unwraps to the native reason.
type ConstructionError struct {
	Backend string
	Reason  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct %s window: %v", e.Backend, e.Reason)
}

func (e *ConstructionError) Unwrap() error { return e.Reason }

func (e *ConstructionError) Is(target error) bool { return target == ErrConstructionFailed }

// Factory creates a window for one backend. On failure it must release
// whatever native resources it acquired before returning.
type Factory func(width, height int, title string, hints platform.Hints) (platform.Window, error)

// Info describes a registered backend.
type Info struct {
	ID       string
	Name     string
	Version  string
	Features platform.FeatureSet
}

// Option customizes a registration.
type Option func(*entry)

// WithName sets a human readable backend name.
func WithName(name string) Option {
	return func(e *entry) { e.name = name }
}

// WithVersion records the native library version.
func WithVersion(version string) Option {
	return func(e *entry) { e.version = version }
}

type entry struct {
	factory  Factory
	features platform.FeatureSet
	name     string
	version  string
}

// Registry holds the backends available to this build.
type Registry struct {
	mu             sync.RWMutex
	entries        map[string]*entry
	defaultBackend string
	logger         *slog.Logger
}

// New creates an empty registry. A nil logger discards output.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Register adds a backend. The feature set is copied.
func (r *Registry) Register(id string, factory Factory, features platform.FeatureSet, opts ...Option) error {
	if id == "" {
		return fmt.Errorf("register backend: empty id")
	}
	if factory == nil {
		return fmt.Errorf("register backend %q: nil factory", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; ok {
		return fmt.Errorf("register backend %q: %w", id, ErrDuplicateBackend)
	}
	e := &entry{
		factory:  factory,
		features: features.Clone(),
		name:     id,
	}
	for _, opt := range opts {
		opt(e)
	}
	r.entries[id] = e
	if r.defaultBackend == "" {
		r.defaultBackend = id
	}

	r.logger.Info("backend registered", "backend", id, "features", e.features.String())
	return nil
}

// Available returns the registered backend ids, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Supports reports whether backend id declares feature. Unknown ids support
// nothing.
func (r *Registry) Supports(id string, feature platform.Feature) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	return e.features.Has(feature)
}

// Features returns a copy of the feature set declared for id.
func (r *Registry) Features(id string) (platform.FeatureSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.features.Clone(), true
}

// Info returns metadata for id.
func (r *Registry) Info(id string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Info{}, false
	}
	return Info{
		ID:       id,
		Name:     e.name,
		Version:  e.version,
		Features: e.features.Clone(),
	}, true
}

// SetDefault selects the backend used when none is specified.
func (r *Registry) SetDefault(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("set default backend %q: %w", id, ErrBackendUnavailable)
	}
	r.defaultBackend = id
	return nil
}

// Default returns the default backend id, or "" when the registry is empty.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultBackend
}

// Create constructs a window with backend id. The factory runs without the
// registry lock held.
func (r *Registry) Create(id string, width, height int, title string, hints platform.Hints) (platform.Window, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("create window on %q: %w", id, ErrBackendUnavailable)
	}

	r.logger.Debug("creating window", "backend", id, "width", width, "height", height, "title", title)
	win, err := e.factory(width, height, title, hints)
	if err != nil {
		return nil, &ConstructionError{Backend: id, Reason: err}
	}
	if win == nil {
		return nil, &ConstructionError{Backend: id, Reason: errors.New("factory returned no window")}
	}
	return win, nil
}
