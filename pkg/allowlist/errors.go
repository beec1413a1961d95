package allowlist

import (
	"errors"
	"fmt"
)

// Sentinel errors for allow-list construction and URL normalization.
var (
	// ErrEmptyAllowList indicates no usable entries were configured.
	ErrEmptyAllowList = errors.New("allow list cannot be empty")
	// ErrInvalidEntry indicates a full-URL entry failed normalization.
	ErrInvalidEntry = errors.New("invalid allow-list entry")
	// ErrInvalidHost indicates a host-only entry is not a valid host name (strict mode only).
	ErrInvalidHost = errors.New("invalid host name in allow list")
	// ErrRejected indicates a URL was rejected by normalization.
	ErrRejected = errors.New("url rejected")
)

// ConfigError is returned when a validator cannot be built from its configuration.
type ConfigError struct {
	Entry string // offending entry, empty when the list as a whole is unusable
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Entry == "" {
		return "allow list: " + e.Err.Error()
	}
	return fmt.Sprintf("allow list entry %q: %v", e.Entry, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func reject(reason string) error {
	return fmt.Errorf("%w: %s", ErrRejected, reason)
}
