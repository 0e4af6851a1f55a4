package v1

import (
	"fmt"
	"io"
	"net/http"

	"github.com/andreyxaxa/Image-Vectorizer/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Image-Vectorizer/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/Image-Vectorizer/internal/dto"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/imagetype"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

// @Summary  	Upload images
// @Description Normalizes up to three JPEG/PNG images, stores them and schedules their vectorization
// @Tags 		images
// @Accept 		mpfd
// @Produce 	json
// @Param 		files formData file   true  "Images (jpg, png), 1..3"
// @Param 		label formData string false "Label"
// @Success 	201 {array}  dto.ImageView
// @Failure 	400 {object} response.Error "Validation (40001, 40002, 40004, 40005)"
// @Failure 	500 {object} response.Error "Internal (999)"
// @Router 		/v1/images [post]
func (r *V1) uploadImages(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, errs.CodeInvalidRequest, "multipart form is required")
	}

	label, err := validate.Label(ctx.FormValue(validate.FormLabel))
	if err != nil {
		return r.fail(ctx, "uploadImages", err)
	}

	// 1. читаем файлы, проверки размера/типа/количества - в use case
	headers := form.File[validate.FormFiles]
	files := make([]dto.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			r.logger.Error(err, "restapi - v1 - uploadImages - fh.Open")

			return errorResponse(ctx, http.StatusInternalServerError, errs.CodeInternal, "problems with opening the file")
		}

		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			r.logger.Error(err, "restapi - v1 - uploadImages - io.ReadAll")

			return errorResponse(ctx, http.StatusInternalServerError, errs.CodeInternal, "problems with reading the file")
		}

		files = append(files, dto.UploadFile{
			Filename: fh.Filename,
			Data:     data,
			Label:    label,
		})
	}

	// 2. загружаем
	views, err := r.img.Upload(ctx.UserContext(), files)
	if err != nil {
		return r.fail(ctx, "uploadImages", err)
	}

	return ctx.Status(http.StatusCreated).JSON(views)
}

// @Summary 	List images
// @Description Pages images newest first with their current status
// @Tags 		images
// @Produce 	json
// @Param 		limit query int false "Page size, 1..100" default(10)
// @Param 		page  query int false "Page number from 0" default(0)
// @Success 	200 {object} dto.ImagePage
// @Failure 	400 {object} response.Error "Invalid pagination (40003)"
// @Failure 	500 {object} response.Error "Internal (999)"
// @Router 		/v1/images [get]
func (r *V1) listImages(ctx *fiber.Ctx) error {
	limit, page, err := validate.Pagination(ctx.Query("limit"), ctx.Query("page"))
	if err != nil {
		return r.fail(ctx, "listImages", err)
	}

	p, err := r.img.List(ctx.UserContext(), limit, page)
	if err != nil {
		return r.fail(ctx, "listImages", err)
	}

	return ctx.JSON(p)
}

// @Summary 	Get image
// @Description Returns the image with its current status and object URLs
// @Tags 		images
// @Produce 	json
// @Param 		id path string true "Image ID(uuid)"
// @Success 	200 {object} dto.ImageView
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Not found (40401)"
// @Failure 	500 {object} response.Error "Internal (999)"
// @Router 		/v1/images/{id} [get]
func (r *V1) getImage(ctx *fiber.Ctx) error {
	id, err := validate.ImageID(ctx.Params("id"))
	if err != nil {
		return r.fail(ctx, "getImage", err)
	}

	view, err := r.img.Get(ctx.UserContext(), id)
	if err != nil {
		return r.fail(ctx, "getImage", err)
	}

	return ctx.JSON(view)
}

// @Summary 	Download SVG
// @Description Streams the optimized SVG of a completed image
// @Tags 		images
// @Produce 	image/svg+xml
// @Param 		id path string true "Image ID(uuid)"
// @Success 	200 {file} 	binary
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Not found or not converted yet (40401)"
// @Failure 	500 {object} response.Error "Internal (999)"
// @Router 		/v1/images/{id}/svg [get]
func (r *V1) downloadVector(ctx *fiber.Ctx) error {
	id, err := validate.ImageID(ctx.Params("id"))
	if err != nil {
		return r.fail(ctx, "downloadVector", err)
	}

	body, err := r.img.DownloadVector(ctx.UserContext(), id)
	if err != nil {
		return r.fail(ctx, "downloadVector", err)
	}

	ctx.Set(fiber.HeaderContentType, imagetype.SVG)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.svg"`, id))

	// fasthttp закроет body после отправки
	return ctx.SendStream(body)
}

// @Summary 	Image status history
// @Description Returns every status event of the image, newest first
// @Tags 		images
// @Produce 	json
// @Param 		id path string true "Image ID(uuid)"
// @Success 	200 {object} response.History
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Not found (40401)"
// @Failure 	500 {object} response.Error "Internal (999)"
// @Router 		/v1/images/{id}/history [get]
func (r *V1) imageHistory(ctx *fiber.Ctx) error {
	id, err := validate.ImageID(ctx.Params("id"))
	if err != nil {
		return r.fail(ctx, "imageHistory", err)
	}

	events, err := r.img.History(ctx.UserContext(), id)
	if err != nil {
		return r.fail(ctx, "imageHistory", err)
	}

	return ctx.JSON(response.NewHistory(id, events))
}

// @Summary 	Delete image
// @Description Deletes the image, its status log and its stored objects
// @Tags 		images
// @Param		id 	path	 string true "Image ID(uuid)"
// @Success		204 "Deleted"
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Not found (40401)"
// @Failure 	500 {object} response.Error "Internal (999)"
// @Router 		/v1/images/{id} [delete]
func (r *V1) deleteImage(ctx *fiber.Ctx) error {
	id, err := validate.ImageID(ctx.Params("id"))
	if err != nil {
		return r.fail(ctx, "deleteImage", err)
	}

	err = r.img.Delete(ctx.UserContext(), id)
	if err != nil {
		return r.fail(ctx, "deleteImage", err)
	}

	return ctx.SendStatus(http.StatusNoContent)
}
