package restapi

import (
	"github.com/andreyxaxa/Image-Vectorizer/config"
	v1 "github.com/andreyxaxa/Image-Vectorizer/internal/controller/restapi/v1"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// @title Image vectorizer
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(app *fiber.App, cfg *config.Config, img usecase.ImageUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// K8s probe
	app.Get("/healthz", func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusOK) })

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewImageRoutes(apiV1Group, img, l)
	}
}
