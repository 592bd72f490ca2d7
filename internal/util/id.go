package util

import "github.com/google/uuid"

// NewID returns a random UUID string used for user, trip, and message IDs.
func NewID() string {
	return uuid.NewString()
}
