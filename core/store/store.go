package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
)

var (
	ErrNotRegistered = errors.New("resource not registered")
	ErrTypeMismatch  = errors.New("resource registered with another entity type")
)

// Store is the handle on every resource's Collection. There is no global store:
// it is created at start up and passed down, explicitly or through a context.Context.
type Store struct {
	logger core.Logger

	mu          sync.RWMutex
	collections map[string]interface{} // {resource: *Collection[T]}
}

func New(logger core.Logger) *Store {
	return &Store{
		logger:      logger,
		collections: make(map[string]interface{}),
	}
}

// Register creates the empty Collection of svc's resource.
// Registering a resource twice returns the existing Collection if the types agree.
func Register[T core.Entity](s *Store, svc crud.Service[T]) (*Collection[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.collections[svc.Resource()]; ok {
		coll, ok := existing.(*Collection[T])
		if !ok {
			return nil, errors.Wrap(ErrTypeMismatch, svc.Resource())
		}
		return coll, nil
	}
	coll := NewCollection[T](svc, s.logger)
	s.collections[svc.Resource()] = coll
	return coll, nil
}

// MustRegister is like Register but panics on error. For wiring at start up.
func MustRegister[T core.Entity](s *Store, svc crud.Service[T]) *Collection[T] {
	coll, err := Register[T](s, svc)
	if err != nil {
		panic(err)
	}
	return coll
}

// Lookup returns the typed Collection of a resource.
func Lookup[T core.Entity](s *Store, resource string) (*Collection[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.collections[resource]
	if !ok {
		return nil, errors.Wrap(ErrNotRegistered, resource)
	}
	coll, ok := existing.(*Collection[T])
	if !ok {
		return nil, errors.Wrap(ErrTypeMismatch, resource)
	}
	return coll, nil
}

// Resources returns the registered resource names, sorted.
func (s *Store) Resources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Store carried by ctx, if any.
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Store)
	return s, ok
}
