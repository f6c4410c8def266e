package store

import "errors"

var (
	// ErrNotFound is returned when a key record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a uniqueness constraint rejects a write.
	ErrConflict = errors.New("store: conflict")
)
