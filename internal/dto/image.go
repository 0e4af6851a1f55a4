package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/google/uuid"
)

type UploadFile struct {
	Filename string
	Data     []byte
	Label    *string
}

// ConvertTask is one unit of asynchronous conversion work. The worker reads the
// preprocessed raster from OriginalKey.
type ConvertTask struct {
	ImageID     uuid.UUID `json:"id"`
	OriginalKey string    `json:"original_key"`
	ContentType string    `json:"content_type"`
}

func (t ConvertTask) Marshal() ([]byte, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("ConvertTask - Marshal - json.Marshal: %w", err)
	}

	return b, nil
}

// ParseConvertTask decodes a dispatched task payload.
func ParseConvertTask(payload []byte) (ConvertTask, error) {
	var t ConvertTask
	if err := json.Unmarshal(payload, &t); err != nil {
		return ConvertTask{}, fmt.Errorf("ParseConvertTask - json.Unmarshal: %w", err)
	}

	if t.ImageID == uuid.Nil {
		return ConvertTask{}, errors.New("ParseConvertTask: missing image id")
	}

	return t, nil
}

// ImageView is an Image resolved together with its latest status.
type ImageView struct {
	ID          uuid.UUID      `json:"id"`
	OriginalURL string         `json:"original_url"`
	SVGURL      *string        `json:"svg_url"`
	Label       *string        `json:"label,omitempty"`
	Status      *entity.Status `json:"status"`
	Description *string        `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type ImagePage struct {
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Items []ImageView `json:"items"`
}
