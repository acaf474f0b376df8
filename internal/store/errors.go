package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a write violates a unique index.
var ErrDuplicate = errors.New("duplicate key")

// ErrInvalidUpdate is returned for empty updates or updates touching the primary key.
var ErrInvalidUpdate = errors.New("invalid update")
