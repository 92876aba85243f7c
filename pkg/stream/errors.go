package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by New for an unusable service URL or
	// missing session provider.
	ErrInvalidConfig = errors.New("stream: invalid configuration")

	// ErrStreamClosed is the disconnect reason when the server ends the
	// response body.
	ErrStreamClosed = errors.New("stream: closed by server")
)

// TransportError reports a non-2xx response to the stream request.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("stream: server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("stream: server returned %d: %s", e.StatusCode, e.Body)
}
