package order

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("order not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("order expired")
	ErrForbidden    = errors.New("forbidden")
)
