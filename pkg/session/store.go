package session

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/storefront/pkg/cache"
)

// Store persists sessions by token.
type Store interface {
	Create(ctx context.Context, s *Session) error
	// Get returns ErrNotFound for unknown tokens and ErrExpired for stale ones.
	Get(ctx context.Context, token string) (*Session, error)
	// Update saves s and drops the key of a regenerated token.
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, token string) error
}

// CacheStore keeps sessions in a cache.Cache: cache.Memory for a single
// process, cache.Redis when several instances share sessions.
type CacheStore struct {
	cache cache.Cache[Data]
}

// NewCacheStore wraps c.
//
//	store := session.NewCacheStore(cache.NewRedis(client, cache.JSON[session.Data]{}, cache.WithPrefix("session:")))
func NewCacheStore(c cache.Cache[Data]) *CacheStore {
	return &CacheStore{cache: c}
}

func (s *CacheStore) Create(ctx context.Context, sess *Session) error {
	return s.save(ctx, sess)
}

func (s *CacheStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	d, err := s.cache.Get(ctx, token)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	sess := FromData(token, d)
	if sess.IsExpired() {
		_ = s.cache.Delete(ctx, token)
		return nil, ErrExpired
	}
	return sess, nil
}

func (s *CacheStore) Update(ctx context.Context, sess *Session) error {
	if prev := sess.PreviousToken(); prev != "" && prev != sess.Token {
		if err := s.cache.Delete(ctx, prev); err != nil {
			return errors.Join(ErrStore, err)
		}
	}
	return s.save(ctx, sess)
}

func (s *CacheStore) Delete(ctx context.Context, token string) error {
	if err := s.cache.Delete(ctx, token); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (s *CacheStore) save(ctx context.Context, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	if err := s.cache.Set(ctx, sess.Token, sess.Data(), ttl); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}
