package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is returned when a response body cannot be decoded.
var ErrMalformedResponse = errors.New("malformed catalog response")

// StatusError is a non-2xx response from the catalog.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Temporary reports whether repeating the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= 500
}

// IsUnauthorized reports whether err is a 401 or 403 from the catalog.
func IsUnauthorized(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
}
