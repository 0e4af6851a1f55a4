package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers: synchronous kinds are mapped to client codes,
// pipeline kinds are recorded as FAILED status events by the conversion worker.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindPreprocess
	KindProcess
	KindUpload
	KindSave
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPreprocess:
		return "preprocess"
	case KindProcess:
		return "process"
	case KindUpload:
		return "upload"
	case KindSave:
		return "save"
	case KindNotFound:
		return "not found"
	default:
		return "internal"
	}
}

// Client-visible codes.
const (
	CodeInvalidRequest    = 40000
	CodeInvalidImageType  = 40001
	CodeInvalidImageSize  = 40002
	CodeInvalidPagination = 40003
	CodeTooManyImages     = 40004
	CodeTooFewImages      = 40005
	CodeContentsNotFound  = 40401
	CodeInternal          = 999
)

type Error struct {
	Kind    Kind
	Code    int
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(code int, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(op string, err error) *Error {
	return &Error{Kind: KindNotFound, Code: CodeContentsNotFound, Message: "The contents not found", Op: op, Err: err}
}

// Wrap classifies err as kind unless it is nil or already classified.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	if kind == KindNotFound {
		return NotFound(op, err)
	}

	return &Error{Kind: kind, Code: CodeInternal, Message: "Internal Server Error", Op: op, Err: err}
}

// Guard runs fn and classifies its failure as kind.
func Guard[T any](kind Kind, op string, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err != nil {
		var zero T
		return zero, Wrap(kind, op, err)
	}
	return v, nil
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Code returns the client-visible code and message for err.
func Code(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) && (e.Kind == KindValidation || e.Kind == KindNotFound) {
		return e.Code, e.Message
	}
	return CodeInternal, "Internal Server Error"
}
