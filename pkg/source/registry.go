package source

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/serpent-os/ent/pkg/errors"
)

// Registry maps source kinds to Checker implementations.
//
// A Registry is safe for concurrent use. Registration normally happens once
// at startup; Check may be called from many goroutines.
type Registry struct {
	mu       sync.RWMutex
	checkers map[Kind]Checker
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[Kind]Checker)}
}

// Register adds or replaces the checker for kind.
func (r *Registry) Register(kind Kind, c Checker) {
	if kind == Unknown {
		panic("source: cannot register a checker for the unknown kind")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[kind] = c
}

// Get returns the checker for kind.
func (r *Registry) Get(kind Kind) (Checker, error) {
	r.mu.RLock()
	c, ok := r.checkers[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "no checker registered for source kind %q", kind)
	}
	return c, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.checkers))
	for k := range r.checkers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Check dispatches d to the checker registered for its kind.
//
// Unknown descriptors return ErrNoUpstream without calling anything.
// Unregistered kinds return an UNSUPPORTED error. Panics inside a checker
// are recovered and reported as INTERNAL_ERROR.
func (r *Registry) Check(ctx context.Context, d Descriptor) (obs []string, err error) {
	if d.IsUnknown() {
		return nil, ErrNoUpstream
	}
	if err := errors.ValidateLocator(d.Locator); err != nil {
		return nil, err
	}
	c, err := r.Get(d.Kind)
	if err != nil {
		return nil, err
	}

	defer func() {
		if p := recover(); p != nil {
			obs = nil
			err = errors.New(errors.ErrCodeInternal, "checker for %s panicked: %v", d.Key(), p)
		}
	}()
	obs, err = c.Check(ctx, d.Locator)
	if err != nil && errors.GetCode(err) == "" {
		code := errors.ErrCodeUnreachable
		if ctx.Err() != nil {
			code = errors.ErrCodeTimeout
		}
		err = errors.Wrap(code, err, "%s", d.Key())
	}
	return obs, err
}

func (r *Registry) String() string {
	return fmt.Sprintf("source.Registry%v", r.Kinds())
}
