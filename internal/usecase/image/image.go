package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/dto"
	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/internal/repo"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/imagetype"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/objectkey"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/google/uuid"
)

const (
	_defaultMaxFiles        = 3
	_defaultMaxFileSize     = 5 << 20
	_defaultOutboxRetention = 24 * time.Hour

	MaxPageLimit = 100
)

type Option func(*ImageUseCase)

func MaxFiles(n int) Option {
	return func(uc *ImageUseCase) {
		uc.maxFiles = n
	}
}

// MaxFileSize is the exclusive upper bound of an uploaded file, in bytes.
func MaxFileSize(size int64) Option {
	return func(uc *ImageUseCase) {
		uc.maxFileSize = size
	}
}

func OutboxRetention(d time.Duration) Option {
	return func(uc *ImageUseCase) {
		uc.outboxRetention = d
	}
}

func Clock(now func() time.Time) Option {
	return func(uc *ImageUseCase) {
		uc.now = now
	}
}

type ImageUseCase struct {
	imageRepo  repo.ImageRepo
	blobRepo   repo.BlobRepo
	outboxRepo repo.OutboxRepo
	transactor repo.Transactor
	statuses   usecase.StatusLog
	prc        usecase.ImageProcessorUseCase

	maxFiles        int
	maxFileSize     int64
	outboxRetention time.Duration
	now             func() time.Time

	logger logger.Interface
}

func New(
	imageRepo repo.ImageRepo,
	blobRepo repo.BlobRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	statuses usecase.StatusLog,
	prc usecase.ImageProcessorUseCase,
	l logger.Interface,
	opts ...Option,
) *ImageUseCase {
	uc := &ImageUseCase{
		imageRepo:       imageRepo,
		blobRepo:        blobRepo,
		outboxRepo:      outboxRepo,
		transactor:      transactor,
		statuses:        statuses,
		prc:             prc,
		maxFiles:        _defaultMaxFiles,
		maxFileSize:     _defaultMaxFileSize,
		outboxRetention: _defaultOutboxRetention,
		now:             time.Now,
		logger:          l,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Upload validates the whole batch before touching storage, then stores every file
// and schedules its conversion.
func (uc *ImageUseCase) Upload(ctx context.Context, files []dto.UploadFile) ([]dto.ImageView, error) {
	if err := uc.validateBatch(files); err != nil {
		return nil, err
	}

	views := make([]dto.ImageView, 0, len(files))
	for _, f := range files {
		view, err := uc.uploadOne(ctx, f)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	return views, nil
}

func (uc *ImageUseCase) uploadOne(ctx context.Context, f dto.UploadFile) (*dto.ImageView, error) {
	// 1. нормализуем
	data, err := uc.prc.Preprocess(ctx, f.Data)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - Upload - uc.prc.Preprocess: %w", err)
	}

	contentType, _ := imagetype.Detect(data)
	now := uc.now()
	originalKey := objectkey.New(objectkey.Ext(contentType), now)

	// 2. загружаем в blob store
	_, err = errs.Guard(errs.KindUpload, "ImageUseCase - Upload - uc.blobRepo.Put", func() (string, error) {
		return uc.blobRepo.Put(ctx, originalKey, data, contentType)
	})
	if err != nil {
		return nil, err
	}

	imageID, err := uuid.NewV7()
	if err != nil {
		return nil, errs.Wrap(errs.KindSave, "ImageUseCase - Upload - uuid.NewV7", err)
	}

	image := &entity.Image{
		ID:          imageID,
		OriginalKey: originalKey,
		Label:       f.Label,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// 3. в единой транзакции: изображение, READY и событие для воркера
	var ready *entity.StatusEvent
	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if err = uc.imageRepo.Create(ctx, image); err != nil {
			return fmt.Errorf("uc.imageRepo.Create: %w", err)
		}

		ready, err = uc.statuses.AppendAt(ctx, imageID, entity.Ready, nil, now)
		if err != nil {
			return fmt.Errorf("uc.statuses.AppendAt: %w", err)
		}

		event, err := uc.createOutboxEvent(image)
		if err != nil {
			return fmt.Errorf("uc.createOutboxEvent: %w", err)
		}
		if err = uc.outboxRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("uc.outboxRepo.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		// транзакция не прошла: удаляем загруженный объект
		if deleteErr := uc.blobRepo.Delete(ctx, originalKey); deleteErr != nil {
			uc.logger.Error(deleteErr, "ImageUseCase - Upload - uc.blobRepo.Delete")
		}
		return nil, errs.Wrap(errs.KindSave, "ImageUseCase - Upload - uc.transactor.WithinTransaction", err)
	}

	return uc.view(image, ready), nil
}

func (uc *ImageUseCase) Get(ctx context.Context, id uuid.UUID) (*dto.ImageView, error) {
	image, err := uc.getImage(ctx, "ImageUseCase - Get", id)
	if err != nil {
		return nil, err
	}

	latest, err := uc.statuses.Latest(ctx, id)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "ImageUseCase - Get - uc.statuses.Latest", err)
	}

	return uc.view(image, latest), nil
}

// List pages images newest first together with their current status.
func (uc *ImageUseCase) List(ctx context.Context, limit, page int) (*dto.ImagePage, error) {
	if limit < 1 || limit > MaxPageLimit || page < 0 {
		return nil, errs.Validation(errs.CodeInvalidPagination,
			fmt.Sprintf("limit must be in [1, %d] and page must not be negative", MaxPageLimit))
	}

	total, err := uc.imageRepo.Count(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "ImageUseCase - List - uc.imageRepo.Count", err)
	}

	items, err := uc.imageRepo.ListWithLatestStatus(ctx, limit, page*limit)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "ImageUseCase - List - uc.imageRepo.ListWithLatestStatus", err)
	}

	views := make([]dto.ImageView, 0, len(items))
	for _, item := range items {
		views = append(views, *uc.view(item.Image, item.Latest))
	}

	return &dto.ImagePage{
		Total: total,
		Page:  page,
		Limit: limit,
		Items: views,
	}, nil
}

func (uc *ImageUseCase) History(ctx context.Context, id uuid.UUID) ([]*entity.StatusEvent, error) {
	if _, err := uc.getImage(ctx, "ImageUseCase - History", id); err != nil {
		return nil, err
	}

	events, err := uc.statuses.History(ctx, id)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "ImageUseCase - History - uc.statuses.History", err)
	}

	return events, nil
}

// Delete removes the image with its status log, then its objects.
func (uc *ImageUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	// 1. получим ключи объектов
	image, err := uc.getImage(ctx, "ImageUseCase - Delete", id)
	if err != nil {
		return err
	}

	// 2. удаляем из бд (события и аутбокс удалятся каскадно)
	err = uc.imageRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errs.NotFound("ImageUseCase - Delete - uc.imageRepo.Delete", err)
		}
		return errs.Wrap(errs.KindInternal, "ImageUseCase - Delete - uc.imageRepo.Delete", err)
	}

	// 3. удаляем объекты
	keys := []string{image.OriginalKey}
	if image.VectorKey != nil {
		keys = append(keys, *image.VectorKey)
	}
	for _, key := range keys {
		if err := uc.blobRepo.Delete(ctx, key); err != nil {
			uc.logger.Warn("ImageUseCase - Delete - failed to delete key=%s, error=%v", key, err)
		}
	}

	return nil
}

// DownloadVector streams the SVG of a completed image.
func (uc *ImageUseCase) DownloadVector(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	image, err := uc.getImage(ctx, "ImageUseCase - DownloadVector", id)
	if err != nil {
		return nil, err
	}

	if image.VectorKey == nil {
		return nil, errs.NotFound("ImageUseCase - DownloadVector", errs.ErrRecordNotFound)
	}

	body, err := uc.blobRepo.Download(ctx, *image.VectorKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "ImageUseCase - DownloadVector - uc.blobRepo.Download", err)
	}

	return body, nil
}

func (uc *ImageUseCase) getImage(ctx context.Context, op string, id uuid.UUID) (*entity.Image, error) {
	image, err := uc.imageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return nil, errs.NotFound(op+" - uc.imageRepo.GetByID", err)
		}
		return nil, errs.Wrap(errs.KindInternal, op+" - uc.imageRepo.GetByID", err)
	}

	return image, nil
}
