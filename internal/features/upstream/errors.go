package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrEmptyBody = errors.New("No data received from server")

// TransportError means no response was received at all.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a response outside the 2xx range.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
}

// PayloadError is a 2xx response whose body is neither a record nor a list of records.
type PayloadError struct {
	Endpoint string
	Err      error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("unexpected payload from %s: %v", e.Endpoint, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

const messagePrefix = "An error occurred while fetching data. "

// UserMessage turns a fetch error into the text shown to the user.
func UserMessage(err error) string {
	var statusErr *StatusError
	var transportErr *TransportError
	switch {
	case errors.As(err, &statusErr):
		return messagePrefix + statusMessage(statusErr.StatusCode)
	case errors.As(err, &transportErr):
		return messagePrefix + "No response received from server. Please check your connection."
	default:
		return messagePrefix + err.Error()
	}
}

func statusMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "Please check your input values."
	case http.StatusUnauthorized:
		return "Authentication required."
	case http.StatusForbidden:
		return "Access denied."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusInternalServerError:
		return "Server error. Please try again later."
	default:
		return "Please try again later."
	}
}
