package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable matches failures where no response was obtained.
	ErrUnavailable = errors.New("server unavailable")
	// ErrSessionExpired matches the error returned when the refresh call fails.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidRequest matches requests that could not be built and were
	// never sent.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCanceled is returned when the caller cancels a request. It is never
	// an *APIError and also matches context.Canceled.
	ErrCanceled = fmt.Errorf("request canceled: %w", context.Canceled)
)

// APIError describes a failed call. Status is 0 when no response was
// obtained; Body is the parsed response payload, if any.
type APIError struct {
	Message string
	Status  int
	Body    any

	expired bool
	invalid bool
	cause   error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Is lets callers classify the error with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return e.Status == 0 && !e.invalid
	case ErrInvalidRequest:
		return e.invalid
	case ErrSessionExpired:
		return e.expired
	}
	return false
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func httpError(resp *Response) *APIError {
	return &APIError{
		Message: messageOf(resp.Body, resp.Status),
		Status:  resp.Status,
		Body:    resp.Body,
	}
}

func transportError(err error) *APIError {
	return &APIError{
		Message: fmt.Sprintf("network request failed: %v", err),
		cause:   err,
	}
}

func requestError(msg string, err error) *APIError {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &APIError{Message: msg, invalid: true, cause: err}
}

// contextError converts a finished context into the error the caller sees:
// cancellation stays distinct, an expired deadline counts as a transport
// failure.
func contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ErrCanceled
	}
	return transportError(ctx.Err())
}

func messageOf(body any, status int) string {
	if m, ok := body.(map[string]any); ok {
		for _, key := range []string{"message", "error", "detail"} {
			if s, ok := m[key].(string); ok && s != "" {
				return s
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", status)
}
