package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response. Problem documents (RFC 7807) fill Title
// and Detail; the health envelope fills Message.
type APIError struct {
	StatusCode int    `json:"-"`
	Title      string `json:"title,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"error,omitempty"`
}

func parseError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if json.Unmarshal(body, apiErr) == nil && (apiErr.Title != "" || apiErr.Detail != "" || apiErr.Message != "") {
		return apiErr
	}
	apiErr.Message = string(bytes.TrimSpace(body))
	return apiErr
}

func (e *APIError) Error() string {
	for _, msg := range []string{e.Detail, e.Message, e.Title} {
		if msg != "" {
			return fmt.Sprintf("%d: %s", e.StatusCode, msg)
		}
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsAuthError reports a missing or wrong Bearer token.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound reports an unknown partition or route.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsConflict reports a message that cannot be handled in the current state,
// such as downloadOffline with no active version.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsUnavailable reports a daemon that is not ready.
func (e *APIError) IsUnavailable() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}
