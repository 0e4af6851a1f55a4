package entity

import (
	"time"

	"github.com/google/uuid"
)

// StatusEvent is an immutable entry of the append-only status log.
// IDs are UUIDv7, so for equal timestamps the greater ID is the later insert.
type StatusEvent struct {
	ID          uuid.UUID `json:"id"`
	ImageID     uuid.UUID `json:"image_id"`
	Status      Status    `json:"status"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// After reports whether e supersedes other as the latest event of an image.
func (e *StatusEvent) After(other *StatusEvent) bool {
	if other == nil {
		return true
	}
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.After(other.CreatedAt)
	}
	return e.ID.String() > other.ID.String()
}
