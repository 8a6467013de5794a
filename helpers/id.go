package helpers

import "github.com/google/uuid"

// NewID returns a fresh UUID-shaped identifier, used for recorded-video
// metadata record identifiers.
func NewID() string {
	return uuid.New().String()
}
