package validate

import (
	"strconv"

	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 10

	FormFiles = "files"
	FormLabel = "label"

	MaxLabelLen = 255
)

func ImageID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errs.Validation(errs.CodeInvalidRequest, "invalid image id")
	}

	return id, nil
}

// Pagination parses query values; empty values take defaults, range checks are left to the use case.
func Pagination(limitStr, pageStr string) (limit, page int, err error) {
	limit, page = DefaultLimit, 0

	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, errs.Validation(errs.CodeInvalidPagination, "limit must be a number")
		}
	}

	if pageStr != "" {
		page, err = strconv.Atoi(pageStr)
		if err != nil {
			return 0, 0, errs.Validation(errs.CodeInvalidPagination, "page must be a number")
		}
	}

	return limit, page, nil
}

// Label returns nil for an empty label.
func Label(s string) (*string, error) {
	if s == "" {
		return nil, nil
	}
	if len(s) > MaxLabelLen {
		return nil, errs.Validation(errs.CodeInvalidRequest, "label is too long")
	}

	return &s, nil
}
