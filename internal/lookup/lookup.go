// Package lookup resolves scanned tag UIDs to registered tools.
package lookup

import "context"

// Record describes a registered tool. Only public-safe fields; anything
// private to the registry stays behind the Resolver boundary.
type Record struct {
	ID     string `json:"id" mapstructure:"id"`
	Name   string `json:"name" mapstructure:"name"`
	TagUID string `json:"tag_uid" mapstructure:"tag_uid"`
}

// Resolver answers who owns a given tag UID.
type Resolver interface {
	// ByTag returns the record registered for uid. It returns ErrNotFound
	// for unknown tags and ErrUnavailable when the backing store cannot be
	// reached.
	ByTag(ctx context.Context, uid string) (*Record, error)
}
