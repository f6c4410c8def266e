package temporal

import "errors"

// Sentinel errors surfaced at the read/write boundary.
var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrValueNotFound    = errors.New("value not found")
	ErrInvalidKey       = errors.New("key is required")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrStorage          = errors.New("storage error")
	ErrCacheUnavailable = errors.New("cache unavailable")
)
