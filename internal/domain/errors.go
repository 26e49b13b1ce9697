package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput signals a malformed or blank query.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound signals that web search returned no results.
	ErrNotFound = errors.New("no search results found")
	// ErrRateLimited signals upstream throttling.
	ErrRateLimited = errors.New("rate limited")
	// ErrTimeout signals that an upstream call exceeded its deadline.
	ErrTimeout = errors.New("upstream timeout")
	// ErrGenerationFailed signals any other language-model provider failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrSearchUnavailable signals a web-search provider failure.
	ErrSearchUnavailable = errors.New("search service unavailable")
	// ErrServiceUnavailable signals that no model is ready to serve the request.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ErrorKind is the closed set of conditions a provider failure can map to.
type ErrorKind int

const (
	// KindGenerationFailed is the fallback kind.
	KindGenerationFailed ErrorKind = iota
	// KindRateLimited means the provider throttled the call.
	KindRateLimited
	// KindTimeout means the call did not finish in time.
	KindTimeout
)

// Sentinel returns the domain error for the kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindRateLimited:
		return ErrRateLimited
	case KindTimeout:
		return ErrTimeout
	default:
		return ErrGenerationFailed
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	default:
		return "generation_failed"
	}
}

// ClassifyProviderError maps an upstream error to an ErrorKind.
//
// The provider does not expose structured error codes, so this is best-effort
// matching on the message text: "rate limit" wins over "timeout". A context
// deadline also counts as a timeout since its message does not say so.
func ClassifyProviderError(err error) ErrorKind {
	if err == nil {
		return KindGenerationFailed
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"):
		return KindRateLimited
	case strings.Contains(msg, "timeout"), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindGenerationFailed
	}
}

// WrapProviderError classifies err and wraps it with the matching sentinel,
// keeping the original message.
func WrapProviderError(err error) error {
	return fmt.Errorf("%w: %s", ClassifyProviderError(err).Sentinel(), err.Error())
}
