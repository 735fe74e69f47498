package util

import (
	"github.com/google/uuid"
)

// NewRunId returns a time-ordered id for a job run. UUIDv7 generation only
// fails when the random source does, in which case a v4 id is returned.
func NewRunId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
