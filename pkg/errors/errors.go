package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTermNotFound     = errors.New("term not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")

	ErrUnknownModel           = errors.New("unknown retrieval model")
	ErrUnsupportedMode        = errors.New("unsupported mode")
	ErrUnknownParameter       = errors.New("unknown parameter")
	ErrParameterOutOfRange    = errors.New("parameter out of range")
	ErrInvalidReferenceLength = errors.New("invalid reference length")

	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrTimeout      = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// IsMissingIndexData reports whether err means the index simply has no entry
// for a term or document. Models treat these as zero contribution.
func IsMissingIndexData(err error) bool {
	return errors.Is(err, ErrTermNotFound) || errors.Is(err, ErrDocumentNotFound)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrDocumentNotFound), errors.Is(err, ErrTermNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDocumentExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnknownModel),
		errors.Is(err, ErrUnsupportedMode),
		errors.Is(err, ErrUnknownParameter),
		errors.Is(err, ErrParameterOutOfRange),
		errors.Is(err, ErrInvalidReferenceLength):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}

}
