package store

import (
	"time"

	"github.com/google/uuid"
)

// Stamp fills in the id and timestamps of a record about to be inserted.
// Existing values are kept so fixtures can pin them.
func Stamp(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

// Touch marks a record as updated now.
func Touch(updatedAt *time.Time) {
	*updatedAt = time.Now().UTC()
}
