package container_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/container"
)

type config struct{ DSN string }

type repo struct{ cfg *config }

type service struct{ repo *repo }

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

func TestResolve_BuildsDependencyGraph(t *testing.T) {
	t.Parallel()

	c := container.New()
	container.Instance(c, &config{DSN: "sqlite://"})
	container.Provide(c, func(c *container.Container) (*repo, error) {
		cfg, err := container.Resolve[*config](c)
		if err != nil {
			return nil, err
		}
		return &repo{cfg: cfg}, nil
	})
	container.Provide(c, func(c *container.Container) (*service, error) {
		r, err := container.Resolve[*repo](c)
		if err != nil {
			return nil, err
		}
		return &service{repo: r}, nil
	})

	svc, err := container.Resolve[*service](c)
	require.NoError(t, err)
	assert.Equal(t, "sqlite://", svc.repo.cfg.DSN)
}

func TestResolve_Memoizes(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := container.New()
	container.Provide(c, func(*container.Container) (*config, error) {
		calls.Add(1)
		return &config{}, nil
	})

	var wg sync.WaitGroup
	results := make([]*config, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = container.MustResolve[*config](c)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestResolve_Interface(t *testing.T) {
	t.Parallel()

	c := container.New()
	container.Instance[greeter](c, english{})

	g, err := container.Resolve[greeter](c)
	require.NoError(t, err)
	assert.Equal(t, "hello", g.Greet())

	_, err = container.Resolve[english](c)
	require.ErrorIs(t, err, container.ErrNotRegistered)
}

func TestResolve_NotRegistered(t *testing.T) {
	t.Parallel()

	c := container.New()
	_, err := container.Resolve[*service](c)
	require.ErrorIs(t, err, container.ErrNotRegistered)
	assert.Contains(t, err.Error(), "container_test.service")
	assert.False(t, container.Has[*service](c))

	assert.Panics(t, func() { container.MustResolve[*service](c) })
}

func TestResolve_Cycle(t *testing.T) {
	t.Parallel()

	c := container.New()
	container.Provide(c, func(c *container.Container) (*repo, error) {
		_, err := container.Resolve[*service](c)
		return &repo{}, err
	})
	container.Provide(c, func(c *container.Container) (*service, error) {
		_, err := container.Resolve[*repo](c)
		return &service{}, err
	})

	_, err := container.Resolve[*service](c)
	require.ErrorIs(t, err, container.ErrCycle)
	assert.Contains(t, err.Error(), "*container_test.service -> *container_test.repo -> *container_test.service")
}

func TestResolve_ConstructorError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	fail := true
	c := container.New()
	container.Provide(c, func(*container.Container) (*config, error) {
		if fail {
			return nil, boom
		}
		return &config{}, nil
	})

	_, err := container.Resolve[*config](c)
	require.ErrorIs(t, err, container.ErrConstructor)
	require.ErrorIs(t, err, boom)

	fail = false
	cfg, err := container.Resolve[*config](c)
	require.NoError(t, err, "failed builds are retried")
	assert.NotNil(t, cfg)
}
