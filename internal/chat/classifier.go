package chat

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the user-facing class of an upstream failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindForbidden
	KindRateLimited
	KindUnavailable
)

const (
	msgUnauthorized    = "Invalid API key. Please check your GLM API configuration."
	msgForbidden       = "Access forbidden. Please check your API permissions."
	msgRateLimited     = "Rate limit exceeded. Please try again later."
	msgUnavailable     = "GLM API is temporarily unavailable. Please try again later."
	msgUpstreamFailure = "Failed to get response from GLM API"
	msgInvalidResponse = "Invalid response format from GLM API"
	msgInternal        = "Internal server error"
	msgMessagesMissing = "Messages array is required"
)

// ErrInvalidResponse is returned when the provider answers 2xx without a
// first choice carrying message content.
var ErrInvalidResponse = errors.New("chat: invalid response format from upstream")

// StatusError is a non-2xx answer from the provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat: upstream returned %d: %s", e.StatusCode, e.Body)
}

// Classify maps a provider status code to its kind.
func Classify(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// Message is the text shown to the visitor.
func (k ErrorKind) Message() string {
	switch k {
	case KindUnauthorized:
		return msgUnauthorized
	case KindForbidden:
		return msgForbidden
	case KindRateLimited:
		return msgRateLimited
	case KindUnavailable:
		return msgUnavailable
	default:
		return msgUpstreamFailure
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "upstream_error"
	}
}
