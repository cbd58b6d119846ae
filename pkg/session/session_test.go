package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/cache"
	"github.com/dmitrymomot/storefront/pkg/session"
)

// endRequest mirrors what the kernel does after every handler.
func endRequest(s *session.Session) {
	s.RemoveOldFlashData()
	s.AgeFlashData()
}

func TestFlash_Lifetime(t *testing.T) {
	t.Parallel()

	s := session.New("id", "token", time.Now().Add(time.Hour))

	// request N
	s.Flash("status", "saved")
	v, ok := s.Get("status")
	require.True(t, ok)
	assert.Equal(t, "saved", v)
	v, ok = s.Get("status")
	require.True(t, ok, "repeated reads are stable")
	assert.Equal(t, "saved", v)
	endRequest(s)

	// request N+1
	v, ok = s.Get("status")
	require.True(t, ok)
	assert.Equal(t, "saved", v)
	endRequest(s)

	// request N+2
	assert.False(t, s.Has("status"))
}

func TestFlash_RewriteExtendsLifetime(t *testing.T) {
	t.Parallel()

	s := session.New("id", "token", time.Now().Add(time.Hour))
	s.Flash("status", "first")
	endRequest(s)

	s.Flash("status", "second")
	endRequest(s)

	v, ok := s.Get("status")
	require.True(t, ok)
	assert.Equal(t, "second", v)
	endRequest(s)
	assert.False(t, s.Has("status"))
}

func TestFlash_Reflash(t *testing.T) {
	t.Parallel()

	s := session.New("id", "token", time.Now().Add(time.Hour))
	s.Flash("status", "saved")
	endRequest(s)

	s.Reflash()
	endRequest(s)
	assert.True(t, s.Has("status"))

	endRequest(s)
	assert.False(t, s.Has("status"))
}

func TestFlash_SurvivesJSONStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := cache.NewMemory[session.Data](cache.WithSweepInterval(0))
	t.Cleanup(func() { _ = mem.Close() })
	store := session.NewCacheStore(jsonCache{mem})

	s := session.New("id", "token", time.Now().Add(time.Hour))
	s.Flash("errors", map[string]any{"name": "This field is required"})
	endRequest(s)
	require.NoError(t, store.Create(ctx, s))

	loaded, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, loaded.Has("errors"))
	endRequest(loaded)
	require.NoError(t, store.Update(ctx, loaded))

	loaded, err = store.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, loaded.Has("errors"))
}

func TestSession_Values(t *testing.T) {
	t.Parallel()

	s := session.New("id", "token", time.Now().Add(time.Hour))
	s.Saved()
	assert.False(t, s.IsDirty())
	assert.False(t, s.IsNew())

	s.Delete("missing")
	assert.False(t, s.IsDirty(), "deleting a missing key is not a change")

	s.Put("cart", []string{"1", "2"})
	assert.True(t, s.IsDirty())

	cart, err := session.Value[[]string](s, "cart")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, cart)

	_, err = session.Value[int](s, "cart")
	require.ErrorIs(t, err, session.ErrTypeMismatch)
	_, err = session.Value[int](s, "nope")
	require.ErrorIs(t, err, session.ErrNotFound)
	assert.Equal(t, 7, session.ValueOr(s, "nope", 7))

	v, ok := s.Pull("cart")
	assert.True(t, ok)
	assert.NotNil(t, v)
	assert.False(t, s.Has("cart"))
}

func TestInt64(t *testing.T) {
	t.Parallel()

	s := session.New("id", "token", time.Now().Add(time.Hour))
	for _, v := range []any{int64(42), 42, float64(42), "42"} {
		s.Put("user", v)
		n, ok := session.Int64(s, "user")
		assert.True(t, ok, "%T", v)
		assert.Equal(t, int64(42), n)
	}

	s.Put("user", 4.5)
	_, ok := session.Int64(s, "user")
	assert.False(t, ok)

	_, ok = session.Int64(nil, "user")
	assert.False(t, ok)
}

func TestCacheStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	newStore := func(t *testing.T) *session.CacheStore {
		mem := cache.NewMemory[session.Data](cache.WithSweepInterval(0))
		t.Cleanup(func() { _ = mem.Close() })
		return session.NewCacheStore(mem)
	}

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		s := session.New("id-1", "tok-1", time.Now().Add(time.Hour))
		s.Put("k", "v")
		require.NoError(t, store.Create(ctx, s))

		loaded, err := store.Get(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "id-1", loaded.ID)
		assert.False(t, loaded.IsNew())
		assert.Equal(t, "v", session.ValueOr(loaded, "k", ""))

		loaded.Put("k", "changed")
		again, err := store.Get(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "v", session.ValueOr(again, "k", ""), "unsaved changes do not leak into the store")
	})

	t.Run("unknown and empty token", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		_, err := store.Get(ctx, "nope")
		require.ErrorIs(t, err, session.ErrNotFound)
		_, err = store.Get(ctx, "")
		require.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("regenerate drops the old token", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		s := session.New("id-2", "tok-2", time.Now().Add(time.Hour))
		require.NoError(t, store.Create(ctx, s))
		s.Saved()

		require.NoError(t, s.Regenerate())
		assert.NotEqual(t, "tok-2", s.Token)
		assert.Equal(t, "tok-2", s.PreviousToken())
		require.NoError(t, store.Update(ctx, s))

		_, err := store.Get(ctx, "tok-2")
		require.ErrorIs(t, err, session.ErrNotFound)
		loaded, err := store.Get(ctx, s.Token)
		require.NoError(t, err)
		assert.Equal(t, "id-2", loaded.ID)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		s := session.New("id-3", "tok-3", time.Now().Add(-time.Second))
		require.ErrorIs(t, store.Create(ctx, s), session.ErrExpired)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		s := session.New("id-4", "tok-4", time.Now().Add(time.Hour))
		require.NoError(t, store.Create(ctx, s))
		require.NoError(t, store.Delete(ctx, "tok-4"))
		_, err := store.Get(ctx, "tok-4")
		require.ErrorIs(t, err, session.ErrNotFound)
	})
}

func TestNewToken(t *testing.T) {
	t.Parallel()

	a, err := session.NewToken()
	require.NoError(t, err)
	b, err := session.NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}

// jsonCache pushes values through the JSON codec, like the Redis backend does.
type jsonCache struct {
	cache.Cache[session.Data]
}

func (c jsonCache) Set(ctx context.Context, key string, d session.Data, ttl time.Duration) error {
	codec := cache.JSON[session.Data]{}
	raw, err := codec.Encode(d)
	if err != nil {
		return err
	}
	decoded, err := codec.Decode(raw)
	if err != nil {
		return err
	}
	return c.Cache.Set(ctx, key, decoded, ttl)
}
