package usecase

import (
	"context"
	"io"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/dto"
	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/google/uuid"
)

type (
	ImageUseCase interface {
		Upload(ctx context.Context, files []dto.UploadFile) ([]dto.ImageView, error)
		Get(ctx context.Context, id uuid.UUID) (*dto.ImageView, error)
		List(ctx context.Context, limit, page int) (*dto.ImagePage, error)
		History(ctx context.Context, id uuid.UUID) ([]*entity.StatusEvent, error)
		Delete(ctx context.Context, id uuid.UUID) error
		DownloadVector(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
	}

	OutboxUseCase interface {
		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error
		ReleaseBatch(ctx context.Context, events []*entity.OutboxEvent) error
		IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		CleanupOutbox(ctx context.Context) error
	}

	ConversionUseCase interface {
		Convert(ctx context.Context, task dto.ConvertTask) error
	}

	// StatusLog is the append-only lifecycle log; the current status of an image is its latest event.
	StatusLog interface {
		Append(ctx context.Context, imageID uuid.UUID, status entity.Status, description *string) (*entity.StatusEvent, error)
		AppendAt(ctx context.Context, imageID uuid.UUID, status entity.Status, description *string, at time.Time) (*entity.StatusEvent, error)
		Latest(ctx context.Context, imageID uuid.UUID) (*entity.StatusEvent, error)
		History(ctx context.Context, imageID uuid.UUID) ([]*entity.StatusEvent, error)
	}

	ImageProcessorUseCase interface {
		Preprocess(ctx context.Context, data []byte) ([]byte, error)
		Process(ctx context.Context, data []byte) ([]byte, error)
	}
)
