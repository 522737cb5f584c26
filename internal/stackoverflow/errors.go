package stackoverflow

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for any non-2xx upstream response. It carries the
// HTTP status and the (truncated) response body so callers can classify
// auth failures (401/403) vs validation failures (400) vs server failures
// (5xx). The body is for server-side logging only and must not be forwarded
// to browsers verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// IsAuthError reports whether err is an upstream 401 or 403 response.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// IsServerError reports whether err is an upstream 5xx response.
func IsServerError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 500
}
