// Package errors defines the sentinel errors shared by the index, ranking and
// service layers, and an AppError wrapper that carries an HTTP status code
// and a message safe to show to API clients.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrEmptyCorpus      = errors.New("empty corpus")
	ErrEmptyIndex       = errors.New("empty index")
	ErrCorruptIndex     = errors.New("corrupt index")
	ErrIndexNotFound    = errors.New("index not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrInternal         = errors.New("internal error")
	ErrTimeout          = errors.New("operation timed out")
)

// AppError pairs a sentinel with a client-facing message.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return e.Err.Error() + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return New(sentinel, statusCode, fmt.Sprintf(format, args...))
}

// Invalid is shorthand for a 400 ErrInvalidInput.
func Invalid(format string, args ...any) *AppError {
	return Newf(ErrInvalidInput, http.StatusBadRequest, format, args...)
}

// Corrupt builds an ErrCorruptIndex failure. A %w verb in format keeps the
// wrapped cause reachable through errors.Is as well.
func Corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %w", ErrCorruptIndex, fmt.Errorf(format, args...))
}

var statusBySentinel = []struct {
	sentinel error
	status   int
}{
	{ErrDocumentNotFound, http.StatusNotFound},
	{ErrIndexNotFound, http.StatusNotFound},
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrRateLimited, http.StatusTooManyRequests},
	{ErrEmptyIndex, http.StatusServiceUnavailable},
	{ErrCorruptIndex, http.StatusServiceUnavailable},
	{ErrTimeout, http.StatusServiceUnavailable},
	{ErrEmptyCorpus, http.StatusUnprocessableEntity},
}

// HTTPStatusCode maps err to a response status. An AppError anywhere in the
// chain wins over the sentinel table.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	for _, m := range statusBySentinel {
		if errors.Is(err, m.sentinel) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage is the text an API client may see for err. Unclassified
// errors collapse to "internal error".
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if HTTPStatusCode(err) == http.StatusInternalServerError {
		return ErrInternal.Error()
	}
	return err.Error()
}
