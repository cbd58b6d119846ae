package models

import "errors"

var (
	ErrUnknownRole   = errors.New("models: unknown role")
	ErrUnknownStatus = errors.New("models: unknown order status")
	ErrOutOfStock    = errors.New("models: not enough stock")
)
