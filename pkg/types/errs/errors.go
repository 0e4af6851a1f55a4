package errs

import "errors"

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrQueueFull       = errors.New("dispatch queue is full")
)
