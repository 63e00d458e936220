package jobtype

// ============================================================================
// Registry
//
// The registry is the bijection between human-readable names and classes,
// plus the backend used by server-resident types. It starts uninitialised;
// Register validates its whole input before replacing the previous state,
// so a failed call leaves the registry exactly as it was.
//
// Every name, format, parse and value operation goes through a registry, so
// several independent registries can live in one process.
// ============================================================================

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Observer is notified after every value operation and backend call made
// through a registry. err is nil on success.
type Observer interface {
	ObserveOperation(op string, err error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithObserver attaches an observer for operation outcomes.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

type Registry struct {
	mu          sync.RWMutex
	initialised bool
	byName      map[string]*Class
	byClass     map[*Class]string
	backend     Backend

	logger   *slog.Logger
	observer Observer
}

// NewRegistry returns an uninitialised registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{logger: slog.With("component", "jobtype")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register replaces the registry's contents with classes and backend.
func (r *Registry) Register(classes map[string]*Class, backend Backend) error {
	if backend == nil {
		return fmt.Errorf("jobtype: register: backend is nil")
	}

	byName := make(map[string]*Class, len(classes))
	byClass := make(map[*Class]string, len(classes))
	for name, c := range classes {
		if !IsIdentifier(name) {
			return fmt.Errorf("jobtype: register: %q is not a valid identifier", name)
		}
		if c == nil {
			return fmt.Errorf("jobtype: register: class for %q is nil", name)
		}
		if !c.IsA(Base) {
			return fmt.Errorf("jobtype: register: class %s (%q) does not derive from %s", c.name, name, Base.name)
		}
		if other, dup := byClass[c]; dup {
			return fmt.Errorf("jobtype: register: class %s registered under both %q and %q", c.name, other, name)
		}
		byName[name] = c
		byClass[c] = name
	}

	r.mu.Lock()
	reinit := r.initialised
	r.byName = byName
	r.byClass = byClass
	r.backend = backend
	r.initialised = true
	r.mu.Unlock()

	r.logger.Debug("registry initialised", "classes", len(byName), "reinitialised", reinit)
	return nil
}

// Initialised reports whether Register has succeeded at least once.
func (r *Registry) Initialised() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialised
}

// ResolveName returns the class registered under name.
func (r *Registry) ResolveName(name string) (*Class, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.initialised {
		return nil, false, ErrNotInitialised
	}
	c, ok := r.byName[name]
	return c, ok, nil
}

// ResolveClass returns the name c is registered under.
func (r *Registry) ResolveClass(c *Class) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.initialised {
		return "", false, ErrNotInitialised
	}
	name, ok := r.byClass[c]
	return name, ok, nil
}

// Names returns every registered name.
func (r *Registry) Names() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.initialised {
		return nil, ErrNotInitialised
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names, nil
}

func (r *Registry) currentBackend() (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.initialised {
		return nil, ErrNotInitialised
	}
	return r.backend, nil
}

// ============================================================================
// Backend forwarding
// ============================================================================

// QueryList lists the rows of table matching filter.
func (r *Registry) QueryList(ctx context.Context, table string, filter Filter) ([]Row, error) {
	b, err := r.currentBackend()
	if err != nil {
		return nil, err
	}
	rows, err := b.List(ctx, table, filter)
	if err != nil {
		err = fmt.Errorf("list %s %s: %w", table, filter, err)
	}
	r.observe("query_list", err)
	return rows, err
}

// QueryOne retrieves the row of table with primary key pk.
func (r *Registry) QueryOne(ctx context.Context, table string, pk int64) (Row, error) {
	b, err := r.currentBackend()
	if err != nil {
		return nil, err
	}
	row, err := b.Retrieve(ctx, table, pk)
	if err != nil {
		err = fmt.Errorf("retrieve %s/%d: %w", table, pk, err)
	}
	r.observe("query_one", err)
	return row, err
}

// Download fetches the binary content of a row, reading the stream to the
// end before returning.
func (r *Registry) Download(ctx context.Context, table string, pk int64) ([]byte, error) {
	b, err := r.currentBackend()
	if err != nil {
		return nil, err
	}
	data, err := readAll(b.Download(ctx, table, pk))
	if err != nil {
		err = fmt.Errorf("download %s/%d: %w", table, pk, err)
	}
	r.observe("download", err)
	return data, err
}

func readAll(rc io.ReadCloser, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (r *Registry) observe(op string, err error) {
	if r.observer != nil {
		r.observer.ObserveOperation(op, err)
	}
}
