package cache

import "errors"

var (
	// ErrNotFound is returned by Get when the key is not cached.
	ErrNotFound = errors.New("cache: key not found")
	// ErrNilKey is returned when a nil pointer/interface key is passed.
	ErrNilKey = errors.New("cache: nil key")
	// ErrNilFetch is returned by GetOrFetch when fetch is nil.
	ErrNilFetch = errors.New("cache: nil fetch func")
	// ErrNilValue is returned by Add for a nil value when StoreNilValues is off.
	ErrNilValue = errors.New("cache: nil value")
	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache: closed")
)
