package v1

import (
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewImageRoutes(apiV1Group fiber.Router, img usecase.ImageUseCase, l logger.Interface) {
	r := &V1{img: img, logger: l}

	images := apiV1Group.Group("/images")
	{
		images.Post("/", r.uploadImages)
		images.Get("/", r.listImages)
		images.Get("/:id", r.getImage)
		images.Get("/:id/svg", r.downloadVector)
		images.Get("/:id/history", r.imageHistory)
		images.Delete("/:id", r.deleteImage)
	}
}
