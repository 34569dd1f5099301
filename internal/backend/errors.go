package backend

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the backend. Message carries the body's
// "error" field.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// StatusError reports a non-2xx status for endpoints whose body is not inspected.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}
