package image

import (
	"fmt"

	"github.com/andreyxaxa/Image-Vectorizer/internal/dto"
	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/imagetype"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/google/uuid"
)

// validateBatch rejects the whole batch on its first invalid file.
func (uc *ImageUseCase) validateBatch(files []dto.UploadFile) error {
	switch {
	case len(files) == 0:
		return errs.Validation(errs.CodeTooFewImages, "At least one image is required")
	case len(files) > uc.maxFiles:
		return errs.Validation(errs.CodeTooManyImages,
			fmt.Sprintf("At most %d images can be uploaded at once", uc.maxFiles))
	}

	for _, f := range files {
		if int64(len(f.Data)) >= uc.maxFileSize {
			return errs.Validation(errs.CodeInvalidImageSize,
				fmt.Sprintf("%s: image must be smaller than %d bytes", f.Filename, uc.maxFileSize))
		}

		if _, ok := imagetype.Detect(f.Data); !ok {
			return errs.Validation(errs.CodeInvalidImageType,
				fmt.Sprintf("%s: only JPEG and PNG images are supported", f.Filename))
		}
	}

	return nil
}

func (uc *ImageUseCase) createOutboxEvent(image *entity.Image) (*entity.OutboxEvent, error) {
	payload, err := dto.ConvertTask{
		ImageID:     image.ID,
		OriginalKey: image.OriginalKey,
		ContentType: image.ContentType,
	}.Marshal()
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - createOutboxEvent: %w", err)
	}

	return &entity.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: image.ID,
		Payload:     payload,
		Status:      entity.OutboxPending,
		CreatedAt:   uc.now(),
		RetryCount:  0,
	}, nil
}

func (uc *ImageUseCase) view(image *entity.Image, latest *entity.StatusEvent) *dto.ImageView {
	v := &dto.ImageView{
		ID:          image.ID,
		OriginalURL: uc.blobRepo.URL(image.OriginalKey),
		Label:       image.Label,
		CreatedAt:   image.CreatedAt,
		UpdatedAt:   image.UpdatedAt,
	}

	if image.VectorKey != nil {
		u := uc.blobRepo.URL(*image.VectorKey)
		v.SVGURL = &u
	}

	if latest != nil {
		status := latest.Status
		v.Status = &status
		v.Description = latest.Description
	}

	return v
}
