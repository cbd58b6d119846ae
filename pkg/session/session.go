package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"
)

// Keys under which flash bookkeeping lives inside Values.
const (
	FlashNewKey = "flash_new"
	FlashOldKey = "flash_old"
)

// Session is the server-side state behind one session cookie.
type Session struct {
	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time

	Values map[string]any
	ID     string // stable identifier, survives token regeneration
	Token  string // cookie value and store key

	previousToken string
	dirty         bool
	isNew         bool
}

// New creates a session with the given ID and token.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       make(map[string]any),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		isNew:        true,
		dirty:        true,
	}
}

// NewToken returns 32 random bytes encoded for use in a cookie.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	if s.Values == nil {
		return nil, false
	}
	v, ok := s.Values[key]
	return v, ok
}

// Has reports whether key is set.
func (s *Session) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Put stores a value.
func (s *Session) Put(key string, val any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
}

// Delete removes a value. The session only becomes dirty if the key existed.
func (s *Session) Delete(key string) {
	if _, ok := s.Get(key); !ok {
		return
	}
	delete(s.Values, key)
	s.dirty = true
}

// Pull returns the value under key and removes it.
func (s *Session) Pull(key string) (any, bool) {
	v, ok := s.Get(key)
	s.Delete(key)
	return v, ok
}

// Flash stores a value that stays readable for the rest of this request and
// the next one.
func (s *Session) Flash(key string, val any) {
	s.Put(key, val)

	fresh := s.keys(FlashNewKey)
	if !slices.Contains(fresh, key) {
		fresh = append(fresh, key)
	}
	s.Values[FlashNewKey] = fresh
	s.Values[FlashOldKey] = slices.DeleteFunc(s.keys(FlashOldKey), func(k string) bool { return k == key })
}

// Reflash keeps every flashed value for one more request.
func (s *Session) Reflash() {
	fresh := s.keys(FlashNewKey)
	for _, k := range s.keys(FlashOldKey) {
		if !slices.Contains(fresh, k) {
			fresh = append(fresh, k)
		}
	}
	s.Put(FlashNewKey, fresh)
	s.Put(FlashOldKey, []string{})
}

// AgeFlashData moves this request's flash keys to the old list.
func (s *Session) AgeFlashData() {
	s.Put(FlashOldKey, s.keys(FlashNewKey))
	s.Put(FlashNewKey, []string{})
}

// RemoveOldFlashData deletes every value flashed before the current request.
func (s *Session) RemoveOldFlashData() {
	for _, k := range s.keys(FlashOldKey) {
		s.Delete(k)
	}
	s.Put(FlashOldKey, []string{})
}

func (s *Session) keys(key string) []string {
	v, _ := s.Get(key)
	return Strings(v)
}

// Regenerate replaces the token and keeps the data. The previous token is
// remembered so the store can drop it on the next save.
func (s *Session) Regenerate() error {
	token, err := NewToken()
	if err != nil {
		return err
	}
	if s.previousToken == "" && !s.isNew {
		s.previousToken = s.Token
	}
	s.Token = token
	s.dirty = true
	return nil
}

// Invalidate clears all values and regenerates the token.
func (s *Session) Invalidate() error {
	s.Values = make(map[string]any)
	return s.Regenerate()
}

// PreviousToken returns the token replaced by Regenerate since the last save.
func (s *Session) PreviousToken() string { return s.previousToken }

// Touch extends the expiry and records activity.
func (s *Session) Touch(expiresAt time.Time) {
	s.LastActiveAt = time.Now()
	s.ExpiresAt = expiresAt
	s.dirty = true
}

func (s *Session) IsDirty() bool   { return s.dirty }
func (s *Session) MarkDirty()      { s.dirty = true }
func (s *Session) IsNew() bool     { return s.isNew }
func (s *Session) IsExpired() bool { return time.Now().After(s.ExpiresAt) }

// Saved resets the change tracking after the session was persisted.
func (s *Session) Saved() {
	s.dirty = false
	s.isNew = false
	s.previousToken = ""
}

// Data is the persisted form of a session.
type Data struct {
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Values       map[string]any `json:"values"`
	ID           string         `json:"id"`
}

// Data returns a detached copy for persisting.
func (s *Session) Data() Data {
	return Data{
		ID:           s.ID,
		Values:       maps.Clone(s.Values),
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
		ExpiresAt:    s.ExpiresAt,
	}
}

// FromData rebuilds a loaded session.
func FromData(token string, d Data) *Session {
	values := maps.Clone(d.Values)
	if values == nil {
		values = make(map[string]any)
	}
	return &Session{
		ID:           d.ID,
		Token:        token,
		Values:       values,
		CreatedAt:    d.CreatedAt,
		LastActiveAt: d.LastActiveAt,
		ExpiresAt:    d.ExpiresAt,
	}
}

// Value returns the value under key as T.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}
	v, ok := s.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w for key %q", ErrTypeMismatch, key)
	}
	return typed, nil
}

// ValueOr is Value with a fallback.
func ValueOr[T any](s *Session, key string, fallback T) T {
	v, err := Value[T](s, key)
	if err != nil {
		return fallback
	}
	return v
}

// Int64 reads a numeric value. Values that went through a JSON backed
// store come back as float64 or string, so every numeric form is accepted.
func Int64(s *Session, key string) (int64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), n == float64(int64(n))
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// Strings converts a stored list to []string.
func Strings(v any) []string {
	switch list := v.(type) {
	case []string:
		return slices.Clone(list)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}
