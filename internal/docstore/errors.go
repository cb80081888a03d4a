package docstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mobsites/Cosmos.Identity/internal/domain/repository"
)

// StatusCanceled se usa cuando el context fue cancelado antes de llegar al store.
const StatusCanceled = 499

// StatusError es el error que devuelven los adapters ante fallos del store.
// Lleva el status code estilo HTTP que la capa de storage traduce a Result.
type StatusError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("docstore: status %d", e.StatusCode)
	}
	return fmt.Sprintf("docstore: status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Is permite usar errors.Is contra los errores de dominio.
func (e *StatusError) Is(target error) bool {
	switch target {
	case repository.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case repository.ErrConflict:
		return e.StatusCode == http.StatusConflict
	case repository.ErrPreconditionFailed:
		return e.StatusCode == http.StatusPreconditionFailed
	case repository.ErrInvalidInput:
		return e.StatusCode == http.StatusBadRequest
	case repository.ErrThrottled:
		return e.StatusCode == http.StatusTooManyRequests
	case repository.ErrUnavailable:
		return e.StatusCode == http.StatusServiceUnavailable
	}
	return false
}

// NewStatusError crea un StatusError.
func NewStatusError(code int, format string, args ...any) *StatusError {
	return &StatusError{StatusCode: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound crea un 404.
func NotFound(format string, args ...any) *StatusError {
	return NewStatusError(http.StatusNotFound, format, args...)
}

// Conflict crea un 409.
func Conflict(format string, args ...any) *StatusError {
	return NewStatusError(http.StatusConflict, format, args...)
}

// PreconditionFailed crea un 412.
func PreconditionFailed(format string, args ...any) *StatusError {
	return NewStatusError(http.StatusPreconditionFailed, format, args...)
}

// BadRequest crea un 400.
func BadRequest(format string, args ...any) *StatusError {
	return NewStatusError(http.StatusBadRequest, format, args...)
}

// Wrap envuelve un error de infraestructura como 500 (o 503 si se indica).
func Wrap(code int, err error, format string, args ...any) *StatusError {
	return &StatusError{StatusCode: code, Message: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err}
}

// StatusCodeOf extrae el status code de un error.
// Errores de context se mapean a 499 (cancelado) o 408 (deadline).
func StatusCodeOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	switch {
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, repository.ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}

// IsNotFound reporta si err es un 404.
func IsNotFound(err error) bool { return StatusCodeOf(err) == http.StatusNotFound }

// IsPreconditionFailed reporta si err es un 412.
func IsPreconditionFailed(err error) bool {
	return StatusCodeOf(err) == http.StatusPreconditionFailed
}
