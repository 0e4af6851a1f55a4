package imageprocessor

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Vectorizer/internal/infrastructure"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
)

// ImageProcessorUseCase is the boundary where processing failures get their kind:
// normalization failures are preprocess errors, tracing and optimization failures are process errors.
type ImageProcessorUseCase struct {
	pre infrastructure.Preprocessor
	vec infrastructure.Vectorizer
	opt infrastructure.Optimizer
}

func New(pre infrastructure.Preprocessor, vec infrastructure.Vectorizer, opt infrastructure.Optimizer) *ImageProcessorUseCase {
	return &ImageProcessorUseCase{
		pre: pre,
		vec: vec,
		opt: opt,
	}
}

func (uc *ImageProcessorUseCase) Preprocess(ctx context.Context, data []byte) ([]byte, error) {
	return errs.Guard(errs.KindPreprocess, "ImageProcessorUseCase - Preprocess", func() ([]byte, error) {
		return uc.pre.Preprocess(ctx, data)
	})
}

// Process turns a raster into an optimized SVG document.
func (uc *ImageProcessorUseCase) Process(ctx context.Context, data []byte) ([]byte, error) {
	return errs.Guard(errs.KindProcess, "ImageProcessorUseCase - Process", func() ([]byte, error) {
		doc, err := uc.vec.Vectorize(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("uc.vec.Vectorize: %w", err)
		}

		optimized, err := uc.opt.Optimize(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("uc.opt.Optimize: %w", err)
		}

		return optimized, nil
	})
}
