// Package options defines the per-concern configuration blocks shared by the
// scanbridge commands. Each block knows its defaults, its flags, and how to
// validate itself.
package options

import (
	"fmt"
	"net"

	"github.com/spf13/pflag"
)

// IOptions defines the methods that an option block must implement.
type IOptions interface {
	// Validate checks the values entered by the user and returns all
	// problems found, not just the first one.
	Validate() []error

	// AddFlags binds the block's fields to the given FlagSet.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// ValidateAddress takes an address as a string and validates it is a legal
// host:port pair.
func ValidateAddress(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%q is not a valid address: %w", addr, err)
	}
	return nil
}
