package session

import "errors"

var (
	ErrNotFound     = errors.New("session: not found")
	ErrExpired      = errors.New("session: expired")
	ErrInvalidToken = errors.New("session: invalid token")
	// ErrStore wraps failures of the backing cache.
	ErrStore = errors.New("session: store failure")
	// ErrTypeMismatch is returned by Value when the stored value has another type.
	ErrTypeMismatch = errors.New("session: value has a different type")
)
