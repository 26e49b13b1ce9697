package casebud

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/casebud/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput       = domain.ErrInvalidInput
	ErrNotFound           = domain.ErrNotFound
	ErrRateLimited        = domain.ErrRateLimited
	ErrTimeout            = domain.ErrTimeout
	ErrGenerationFailed   = domain.ErrGenerationFailed
	ErrServiceUnavailable = domain.ErrServiceUnavailable
)

// ErrUnauthorized is returned when the API key is missing or rejected.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("casebud: %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the HTTP status to a sentinel error.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrInvalidInput
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusGatewayTimeout:
		return ErrTimeout
	case http.StatusServiceUnavailable:
		return ErrServiceUnavailable
	case http.StatusInternalServerError:
		return ErrGenerationFailed
	default:
		return nil
	}
}

// retryable reports whether a later attempt may succeed.
func retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServiceUnavailable)
}
