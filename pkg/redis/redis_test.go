package redis_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/redis"
)

func TestOpen_InvalidURL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		_, err := redis.Open(ctx, "")
		require.ErrorIs(t, err, redis.ErrEmptyURL)
	})

	for _, url := range []string{"http://localhost:6379", "localhost:6379", "redis://localhost:6379/notanumber"} {
		t.Run(url, func(t *testing.T) {
			t.Parallel()

			client, err := redis.Open(ctx, url)
			require.ErrorIs(t, err, redis.ErrInvalidURL)
			assert.Nil(t, client)
		})
	}
}

func TestOpen_Unreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := redis.Open(ctx, "redis://127.0.0.1:1/0",
		redis.WithRetry(2, 10*time.Millisecond),
		redis.WithTimeouts(0, 0, 100*time.Millisecond),
	)
	require.ErrorIs(t, err, redis.ErrConnectionFailed)
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, redis.Healthcheck(nil)(context.Background()), redis.ErrHealthcheckFailed)

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL is not set")
	}
	client, err := redis.Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, redis.Healthcheck(client)(context.Background()))
}

type closer struct {
	err    error
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	c := &closer{err: errors.New("close failed")}
	err := redis.Shutdown(c)(context.Background())
	require.ErrorIs(t, err, c.err)
	assert.True(t, c.closed)
}
