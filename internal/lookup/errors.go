package lookup

import "errors"

var (
	// ErrNotFound is returned when no record is registered for a tag UID.
	ErrNotFound = errors.New("lookup: tag not registered")

	// ErrUnavailable is returned when the backing store cannot be reached.
	// Callers treat it as a degraded lookup, not a rejection.
	ErrUnavailable = errors.New("lookup: store unavailable")
)
