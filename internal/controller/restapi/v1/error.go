package v1

import (
	"net/http"

	"github.com/andreyxaxa/Image-Vectorizer/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

func errorResponse(ctx *fiber.Ctx, status, code int, msg string) error {
	return ctx.Status(status).JSON(response.Error{Message: msg, ErrorCode: code})
}

// fail maps a use case error to its status and client code; internal details are only logged.
func (r *V1) fail(ctx *fiber.Ctx, op string, err error) error {
	code, msg := errs.Code(err)

	switch errs.KindOf(err) {
	case errs.KindValidation:
		return errorResponse(ctx, http.StatusBadRequest, code, msg)
	case errs.KindNotFound:
		return errorResponse(ctx, http.StatusNotFound, code, msg)
	default:
		r.logger.Error(err, "restapi - v1 - "+op)

		return errorResponse(ctx, http.StatusInternalServerError, code, msg)
	}
}
