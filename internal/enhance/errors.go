package enhance

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors.
var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("enhance: API key required")

	// ErrEmptySentence is returned when there is nothing to enhance.
	ErrEmptySentence = errors.New("enhance: sentence required")

	// ErrNoChoices is returned when the completion carries no usable message.
	ErrNoChoices = errors.New("enhance: empty completion")
)

// APIError is an error response from the completion API.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Provider   string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("enhance [%s]: API error %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("enhance [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRateLimited reports HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsUnauthorized reports HTTP 401.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsServerError reports HTTP 5xx.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable reports whether the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("enhance [%s]: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps err with provider context. It returns nil for a nil err.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
