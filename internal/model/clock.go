package model

import (
	"time"

	"github.com/google/uuid"
)

// Now returns the current UTC time at millisecond precision, the resolution
// shared by the local store, the remote store and export files.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewID returns a fresh opaque record id.
func NewID() string {
	return uuid.NewString()
}
