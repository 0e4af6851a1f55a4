// Package conversion is the worker side of the pipeline: it turns a stored raster into
// a stored SVG and records every step in the status log.
package conversion

import (
	"context"
	"errors"
	"fmt"
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

// errSuperseded means another delivery of the same task stored the vector first.
var errSuperseded = errors.New("vector already stored by another delivery")

// _failedStatusTimeout bounds recording FAILED once the pipeline ctx is done.
const _failedStatusTimeout = 5 * time.Second

type ConversionUseCase struct {
	imageRepo repo.ImageRepo
	blobRepo  repo.BlobRepo
	statuses  usecase.StatusLog
	prc       usecase.ImageProcessorUseCase
	now       func() time.Time

	logger logger.Interface
}

func New(
	imageRepo repo.ImageRepo,
	blobRepo repo.BlobRepo,
	statuses usecase.StatusLog,
	prc usecase.ImageProcessorUseCase,
	l logger.Interface,
) *ConversionUseCase {
	return &ConversionUseCase{
		imageRepo: imageRepo,
		blobRepo:  blobRepo,
		statuses:  statuses,
		prc:       prc,
		now:       time.Now,
		logger:    l,
	}
}

// Convert runs one conversion. Pipeline failures end as a FAILED event and are not returned;
// an error means the status could not be recorded and the task should be delivered again.
func (uc *ConversionUseCase) Convert(ctx context.Context, task dto.ConvertTask) error {
	image, err := uc.imageRepo.GetByID(ctx, task.ImageID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			uc.logger.Info("ConversionUseCase - Convert - image %s is gone, skipping", task.ImageID)
			return nil
		}
		return fmt.Errorf("ConversionUseCase - Convert - uc.imageRepo.GetByID: %w", err)
	}

	if image.VectorKey != nil {
		uc.logger.Info("ConversionUseCase - Convert - image %s is already vectorized, skipping", image.ID)
		return nil
	}

	// 1. PROCESSING
	if _, err := uc.statuses.Append(ctx, image.ID, entity.Processing, nil); err != nil {
		return fmt.Errorf("ConversionUseCase - Convert - uc.statuses.Append(processing): %w", err)
	}

	// 2. конвертация
	err = uc.convert(ctx, image)
	switch {
	case errors.Is(err, errSuperseded):
		return uc.settle(ctx, image.ID)
	case err != nil:
		uc.logger.Error(err, "ConversionUseCase - Convert - image %s (%s)", image.ID, errs.KindOf(err))

		return uc.recordFailure(ctx, image.ID, err)
	}

	// 3. COMPLETED
	if _, err := uc.statuses.Append(ctx, image.ID, entity.Completed, nil); err != nil {
		return fmt.Errorf("ConversionUseCase - Convert - uc.statuses.Append(completed): %w", err)
	}

	return nil
}

func (uc *ConversionUseCase) convert(ctx context.Context, image *entity.Image) error {
	data, err := errs.Guard(errs.KindProcess, "ConversionUseCase - convert - uc.blobRepo.Get", func() ([]byte, error) {
		return uc.blobRepo.Get(ctx, image.OriginalKey)
	})
	if err != nil {
		return err
	}

	doc, err := uc.prc.Process(ctx, data)
	if err != nil {
		return fmt.Errorf("ConversionUseCase - convert - uc.prc.Process: %w", err)
	}

	now := uc.now()
	key := objectkey.New("svg", now)

	_, err = errs.Guard(errs.KindUpload, "ConversionUseCase - convert - uc.blobRepo.Put", func() (string, error) {
		return uc.blobRepo.Put(ctx, key, doc, imagetype.SVG)
	})
	if err != nil {
		return err
	}

	err = uc.imageRepo.SetVectorKey(ctx, image.ID, key, now)
	if err != nil {
		if deleteErr := uc.blobRepo.Delete(ctx, key); deleteErr != nil {
			uc.logger.Error(deleteErr, "ConversionUseCase - convert - uc.blobRepo.Delete")
		}
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errSuperseded
		}
		return errs.Wrap(errs.KindSave, "ConversionUseCase - convert - uc.imageRepo.SetVectorKey", err)
	}

	return nil
}

// recordFailure appends FAILED even when ctx is already done: a timed out pipeline must not
// leave the image in PROCESSING.
func (uc *ConversionUseCase) recordFailure(ctx context.Context, id uuid.UUID, cause error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), _failedStatusTimeout)
	defer cancel()

	description := cause.Error()
	if _, err := uc.statuses.Append(ctx, id, entity.Failed, &description); err != nil {
		return fmt.Errorf("ConversionUseCase - recordFailure - uc.statuses.Append(failed): %w", err)
	}

	return nil
}

// settle records the outcome when a concurrent delivery won the vector key race.
func (uc *ConversionUseCase) settle(ctx context.Context, id uuid.UUID) error {
	image, err := uc.imageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("ConversionUseCase - settle - uc.imageRepo.GetByID: %w", err)
	}

	if _, err := uc.statuses.Append(ctx, image.ID, entity.Completed, nil); err != nil {
		return fmt.Errorf("ConversionUseCase - settle - uc.statuses.Append(completed): %w", err)
	}

	return nil
}
