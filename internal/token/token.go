// Package token issues the opaque identifiers that correlate confirmation
// links with pending subscription records.
package token

import "github.com/google/uuid"

// New returns a single-use token with negligible collision probability.
// The value is URL-safe and usable directly as a store key and as a query
// parameter without further encoding.
func New() string {
	return uuid.NewString()
}
