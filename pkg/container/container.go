package container

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// key identifies a registration. key[A]{} and key[B]{} are distinct
// comparable values, so the registry needs no reflection.
type key[T any] struct{}

type entry struct {
	value any
	build func(*Container) (any, error)
	name  string
	built bool
}

type registry struct {
	entries map[any]*entry
	mu      sync.Mutex
}

// Container is a registry of lazily built singletons keyed by Go type.
// It is safe for concurrent use. Builds are serialized.
//
// The *Container handed to a constructor is a view bound to that build; it
// must not be kept after the constructor returns.
type Container struct {
	reg       *registry
	resolving []string
	held      bool
}

// New returns an empty container.
func New() *Container {
	return &Container{reg: &registry{entries: make(map[any]*entry)}}
}

func (c *Container) lock() func() {
	if c.held {
		return func() {}
	}
	c.reg.mu.Lock()
	return c.reg.mu.Unlock
}

// Provide registers a constructor for T. The constructor runs on the first
// Resolve and its result is memoized. Registering T again replaces it.
//
//	container.Provide(c, func(c *container.Container) (*query.DB, error) {
//		return query.New(sqlDB), nil
//	})
func Provide[T any](c *Container, fn func(*Container) (T, error)) {
	defer c.lock()()
	c.reg.entries[key[T]{}] = &entry{
		name:  typeName[T](),
		build: func(c *Container) (any, error) { return fn(c) },
	}
}

// Instance registers an already built value for T.
func Instance[T any](c *Container, v T) {
	defer c.lock()()
	c.reg.entries[key[T]{}] = &entry{name: typeName[T](), value: v, built: true}
}

// Has reports whether T is registered.
func Has[T any](c *Container) bool {
	defer c.lock()()
	_, ok := c.reg.entries[key[T]{}]
	return ok
}

// Resolve returns the value registered for T, building it on first use.
// Constructors resolve their own dependencies from the container they
// receive. A failed build is not memoized.
func Resolve[T any](c *Container) (T, error) {
	var zero T
	defer c.lock()()

	e, ok := c.reg.entries[key[T]{}]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, typeName[T]())
	}
	if !e.built {
		if slices.Contains(c.resolving, e.name) {
			chain := append(slices.Clone(c.resolving), e.name)
			return zero, fmt.Errorf("%w: %s", ErrCycle, strings.Join(chain, " -> "))
		}
		view := &Container{
			reg:       c.reg,
			resolving: append(slices.Clone(c.resolving), e.name),
			held:      true,
		}
		v, err := e.build(view)
		if err != nil {
			if errors.Is(err, ErrCycle) || errors.Is(err, ErrNotRegistered) {
				return zero, err
			}
			return zero, errors.Join(ErrConstructor, fmt.Errorf("%s: %w", e.name, err))
		}
		e.value, e.built = v, true
	}

	v, _ := e.value.(T) // nil interface values resolve to the zero T
	return v, nil
}

// MustResolve is Resolve that panics on failure. Use it in composition roots.
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

func typeName[T any]() string {
	return fmt.Sprintf("%T", (*T)(nil))[1:]
}
