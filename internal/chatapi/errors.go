// ABOUTME: Error values returned by the chat API client.
// ABOUTME: Separates transport failures, HTTP status failures, and empty replies.

package chatapi

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkUnstable is returned for 502 and 404 responses.
	ErrNetworkUnstable = errors.New("the network is unstable, please try again later")

	// ErrEmptyReply is returned when a successful response carries no content
	// beyond the client correlation id.
	ErrEmptyReply = errors.New("network error: the server returned an empty response")
)

// TransportError wraps a failure that prevented any HTTP response from arriving.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to fetch: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response other than 502 and 404.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}
