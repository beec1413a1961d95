package session

import (
	"errors"
	"fmt"
)

var (
	// ErrDisabled indicates the feature is switched off in the configuration.
	ErrDisabled = errors.New("websocket feed is disabled")
	// ErrDenied indicates the candidate URL is not allowed.
	ErrDenied = errors.New("url not allowed")
)

// DeniedError reports why a candidate URL was refused.
type DeniedError struct {
	URL    string
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("url %q not allowed: %s", e.URL, e.Reason)
}

// Unwrap returns ErrDenied.
func (e *DeniedError) Unwrap() error {
	return ErrDenied
}
