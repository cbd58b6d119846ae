package model

import "errors"

var (
	ErrNoTable      = errors.New("model: table is not set")
	ErrNotPersisted = errors.New("model: record has no primary key")
	ErrFill         = errors.New("model: failed to fill record")
	ErrInvalidPivot = errors.New("model: pivot table and keys are required")
)
