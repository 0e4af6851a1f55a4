package repo

import (
	"context"
	"io"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/google/uuid"
)

type (
	// BlobRepo is the object store holding original rasters and vector documents.
	BlobRepo interface {
		Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
		Get(ctx context.Context, key string) ([]byte, error)
		Download(ctx context.Context, key string) (io.ReadCloser, error)
		Delete(ctx context.Context, key string) error
		Exists(ctx context.Context, key string) (bool, error)
		URL(key string) string
	}

	ImageRepo interface {
		Create(ctx context.Context, image *entity.Image) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error)
		// SetVectorKey writes the vector key once; it returns errs.ErrRecordNotFound when the
		// image is missing or already has a vector key.
		SetVectorKey(ctx context.Context, id uuid.UUID, key string, updatedAt time.Time) error
		Delete(ctx context.Context, id uuid.UUID) error
		Count(ctx context.Context) (int64, error)
		ListWithLatestStatus(ctx context.Context, limit, offset int) ([]entity.ImageWithStatus, error)
	}

	StatusEventRepo interface {
		Append(ctx context.Context, event *entity.StatusEvent) error
		// Latest returns errs.ErrRecordNotFound when the image has no events.
		Latest(ctx context.Context, imageID uuid.UUID) (*entity.StatusEvent, error)
		ListByImage(ctx context.Context, imageID uuid.UUID) ([]*entity.StatusEvent, error)
	}

	OutboxRepo interface {
		Create(ctx context.Context, event *entity.OutboxEvent) error
		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error
		ReleaseBatch(ctx context.Context, IDs uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		DeleteOldProcessedAndFailed(ctx context.Context, olderThan time.Time) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
