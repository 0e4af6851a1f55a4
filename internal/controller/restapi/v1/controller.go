package v1

import (
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
)

type V1 struct {
	img    usecase.ImageUseCase
	logger logger.Interface
}
