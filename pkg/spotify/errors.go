package spotify

import (
	"errors"
	"fmt"
)

// Error represents an error response from the Spotify Web API.
//
// The Error type carries the HTTP status code and the message returned
// by the API. It implements error and provides helpers for retry
// decisions.
type Error struct {
	StatusCode int    // HTTP status code of the response
	Message    string // Error message from the API, if any
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify: API error %d", e.StatusCode)
	}
	return fmt.Sprintf("spotify: API error %d: %s", e.StatusCode, e.Message)
}

// Is checks if the target error is a Spotify API error with the same
// status code, so errors.Is() works with *Error values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// ClientError reports whether the error is a 4xx response. Client
// errors are never retried: the request itself is at fault, including a
// 401 that survived the transport's single token refresh.
func (e *Error) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// ErrAuthFailed is returned when the client-credentials exchange fails.
// The cause is wrapped but callers are expected to treat it as a
// generic authentication failure.
var ErrAuthFailed = errors.New("spotify: authentication failed")

// Retryable reports whether err is worth retrying. 4xx responses and
// authentication failures are final; everything else (5xx, transport
// errors) is considered transient.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthFailed) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return !apiErr.ClientError()
	}
	return true
}
