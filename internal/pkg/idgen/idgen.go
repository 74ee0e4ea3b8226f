package idgen

import "github.com/google/uuid"

// New returns a fresh UUIDv4 string. All entity constructors go through
// here so the ID format stays in one place.
func New() string {
	return uuid.NewString()
}
