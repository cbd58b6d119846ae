package container

import "errors"

var (
	ErrNotRegistered = errors.New("container: type not registered")
	ErrCycle         = errors.New("container: dependency cycle")
	ErrConstructor   = errors.New("container: constructor failed")
)
