package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrLocked       = errors.New("locked")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingData is returned when a listing lacks a parent filter.
	ErrMissingData = errors.New("missing data")
)
