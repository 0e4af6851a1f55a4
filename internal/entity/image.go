package entity

import (
	"time"

	"github.com/google/uuid"
)

// Image never carries its processing status: the current status is always derived
// from the latest StatusEvent.
type Image struct {
	ID uuid.UUID `json:"id"`

	OriginalKey string  `json:"original_key"`
	VectorKey   *string `json:"vector_key,omitempty"`

	Label       *string `json:"label,omitempty"`
	ContentType string  `json:"content_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImageWithStatus pairs an Image with its latest status event (nil when the log is empty).
type ImageWithStatus struct {
	Image  *Image
	Latest *StatusEvent
}
