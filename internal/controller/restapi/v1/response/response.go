package response

import (
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/google/uuid"
)

type Error struct {
	Message   string `json:"message"`
	ErrorCode int    `json:"error_code"`
}

type StatusEvent struct {
	ID          uuid.UUID     `json:"id"`
	Status      entity.Status `json:"status"`
	Description *string       `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// History lists status events newest first.
type History struct {
	ImageID uuid.UUID     `json:"image_id"`
	Events  []StatusEvent `json:"events"`
}

func NewHistory(imageID uuid.UUID, events []*entity.StatusEvent) History {
	h := History{
		ImageID: imageID,
		Events:  make([]StatusEvent, 0, len(events)),
	}

	for _, e := range events {
		h.Events = append(h.Events, StatusEvent{
			ID:          e.ID,
			Status:      e.Status,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}

	return h
}
