package auth

import "errors"

var (
	ErrNoSession    = errors.New("auth: request has no session")
	ErrNotPersisted = errors.New("auth: user has no id")
	ErrHash         = errors.New("auth: password hashing failed")
	ErrProvider     = errors.New("auth: user lookup failed")
)
