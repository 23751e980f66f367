package cache

import "errors"

var (
	// ErrNotFound is returned when a key is missing or expired.
	ErrNotFound = errors.New("cache: entry not found")
	// ErrClosed is returned by a closed Memory store.
	ErrClosed = errors.New("cache: closed")
)
