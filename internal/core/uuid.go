package core

import "github.com/google/uuid"

// NewUUIDv7 returns a new time-ordered UUID. Job and user IDs use v7 so
// records created together sort together under the store's keys.
func NewUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4
		// rather than surfacing an error from every ID call site.
		return uuid.NewString()
	}
	return id.String()
}
