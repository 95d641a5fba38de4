package adapter

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a rejected credential. It is always terminal for the
// entry being processed: retrying with the same token cannot succeed.
var ErrUnauthorized = errors.New("client unauthorized")

// RemoteError is a non-2xx response from the authoritative server.
type RemoteError struct {
	// Status is the HTTP status code.
	Status int

	// Msg is the trimmed response body, or the status text when empty.
	Msg string

	// Terminal reports whether retrying the same request is pointless.
	// Validation rejections (4xx) are terminal; server faults and
	// transport errors are not.
	Terminal bool
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Msg)
}

// IsTerminal reports whether err represents a failure that no amount of
// retrying can fix.
func IsTerminal(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Terminal
	}
	return false
}
