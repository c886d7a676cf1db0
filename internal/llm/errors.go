package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorKind classifies generation failures for retry and fallback decisions.
type ErrorKind string

const (
	KindRateLimit    ErrorKind = "rate_limit"
	KindAPIError     ErrorKind = "api_error"
	KindNetworkError ErrorKind = "network_error"
	KindAuthError    ErrorKind = "auth_error"
	KindUnknown      ErrorKind = "unknown"
)

// Sentinel errors for router-level conditions.
var (
	// ErrNoProvidersAvailable indicates every provider in the chain was
	// skipped or exhausted without a single attempt succeeding.
	ErrNoProvidersAvailable = errors.New("no providers available")

	// ErrStreamingUnsupported indicates no provider in the chain can stream.
	ErrStreamingUnsupported = errors.New("streaming not supported by any available provider")

	// ErrRouterDisposed indicates the router was used after Dispose.
	ErrRouterDisposed = errors.New("router has been disposed")
)

// GenerationError is a classified error from an LLM provider call.
type GenerationError struct {
	Message   string    // human-readable description
	Code      string    // provider error code or HTTP status, when known
	Kind      ErrorKind // taxonomy bucket
	Retryable bool      // derived from Kind at construction
	Provider  string    // provider that produced the error
	Err       error     // underlying cause
}

func (e *GenerationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// retryableKind reports whether a kind permits retry with the same provider
// and may be recovered by fallback. auth_error and unknown are terminal.
func retryableKind(kind ErrorKind) bool {
	switch kind {
	case KindRateLimit, KindNetworkError, KindAPIError:
		return true
	default:
		return false
	}
}

// NewGenerationError builds a classified error with Retryable derived from kind.
func NewGenerationError(provider, message, code string, kind ErrorKind, cause error) *GenerationError {
	return &GenerationError{
		Message:   message,
		Code:      code,
		Kind:      kind,
		Retryable: retryableKind(kind),
		Provider:  provider,
		Err:       cause,
	}
}

// ClassifyHTTPStatus maps an HTTP status code to an error kind.
// 429 is a rate limit, 401/403 are credential failures, any other
// non-2xx response is a provider-side API error.
func ClassifyHTTPStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthError
	case status >= 400:
		return KindAPIError
	default:
		return KindUnknown
	}
}

// ClassifyError converts an arbitrary error from a provider call into a
// GenerationError. Already-classified errors pass through unchanged.
func ClassifyError(provider string, err error) *GenerationError {
	if err == nil {
		return nil
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}

	// Transport-level failures: timeouts, refused connections, DNS.
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return NewGenerationError(provider, err.Error(), "", KindNetworkError, err)
	}

	return classifyByMessage(provider, err)
}

// classifyByMessage inspects the error text for known provider patterns.
func classifyByMessage(provider string, err error) *GenerationError {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "ratelimit") ||
		strings.Contains(msg, "too many requests") || strings.Contains(msg, "429"):
		return NewGenerationError(provider, err.Error(), "", KindRateLimit, err)

	case strings.Contains(msg, "invalid api key") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "authentication") || strings.Contains(msg, "401"):
		return NewGenerationError(provider, err.Error(), "", KindAuthError, err)

	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "connection reset") || strings.Contains(msg, "eof"):
		return NewGenerationError(provider, err.Error(), "", KindNetworkError, err)

	case strings.Contains(msg, "overloaded") || strings.Contains(msg, "capacity") ||
		strings.Contains(msg, "unavailable") || strings.Contains(msg, "bad gateway") ||
		strings.Contains(msg, "internal server error"):
		return NewGenerationError(provider, err.Error(), "", KindAPIError, err)

	default:
		return NewGenerationError(provider, err.Error(), "", KindUnknown, err)
	}
}

// IsAuthError reports whether err is a classified credential failure.
func IsAuthError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Kind == KindAuthError
}

// IsRetryable reports whether err permits retry or fallback.
func IsRetryable(err error) bool {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Retryable
	}
	return false
}
