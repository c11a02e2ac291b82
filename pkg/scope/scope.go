// Package scope implements a hierarchical dependency registry. Each
// execution gets a private child scope seeded from process-wide singletons:
// lookups that miss locally fall back to the parent, and registrations in a
// child never leak upward.
package scope

import (
	"sync"

	"github.com/ajitpratap0/quasar/pkg/qerrors"
)

// Factory constructs a value on first resolution.
type Factory func() (interface{}, error)

type entry struct {
	value     interface{}
	factory   Factory
	singleton bool
	built     bool
}

// Scope is a key-value registry with parent fallback.
type Scope struct {
	mu      sync.RWMutex
	parent  *Scope
	entries map[string]*entry
}

// New creates a root scope.
func New() *Scope {
	return &Scope{entries: make(map[string]*entry)}
}

// Register binds token to a ready value in this scope, replacing any
// previous local binding.
func (s *Scope) Register(token string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = &entry{value: value, built: true}
}

// RegisterFactory binds token to a constructor. When singleton is true the
// factory runs at most once and its value is cached in this scope.
func (s *Scope) RegisterFactory(token string, factory Factory, singleton bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = &entry{factory: factory, singleton: singleton}
}

// Resolve looks token up locally, then walks up the parent chain. Returns a
// not_found error when no scope in the chain has a binding.
func (s *Scope) Resolve(token string) (interface{}, error) {
	s.mu.Lock()
	e, ok := s.entries[token]
	if !ok {
		s.mu.Unlock()
		if s.parent != nil {
			return s.parent.Resolve(token)
		}
		return nil, qerrors.Newf(qerrors.KindNotFound, "token %q is not registered", token)
	}

	if e.built {
		v := e.value
		s.mu.Unlock()
		return v, nil
	}

	// Factory binding. Build under the lock so a singleton is constructed
	// exactly once even when resolved concurrently.
	v, err := e.factory()
	if err != nil {
		s.mu.Unlock()
		return nil, qerrors.Wrap(err, qerrors.KindInternal, "factory failed").
			WithDetail("token", token)
	}
	if e.singleton {
		e.value = v
		e.built = true
	}
	s.mu.Unlock()
	return v, nil
}

// Has reports whether token resolves in this scope or any ancestor.
func (s *Scope) Has(token string) bool {
	s.mu.RLock()
	_, ok := s.entries[token]
	s.mu.RUnlock()
	if ok {
		return true
	}
	if s.parent != nil {
		return s.parent.Has(token)
	}
	return false
}

// CreateChild returns a scope whose failed local lookups delegate to s.
func (s *Scope) CreateChild() *Scope {
	return &Scope{parent: s, entries: make(map[string]*entry)}
}
