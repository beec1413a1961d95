package config

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAllowList indicates the feature is enabled but no allow-list entry was configured.
	ErrNoAllowList = errors.New("allow list is empty: set allowedUris or allowListFiles")
	// ErrUnknownKey indicates an override for a key that does not exist.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrInvalidValue indicates an override value that cannot be parsed.
	ErrInvalidValue = errors.New("invalid config value")
)

// ConfigError represents a configuration file error with location info.
type ConfigError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, column %d): %s", e.Path, e.Line, e.Column, e.Message)
	}
	return e.Path + ": " + e.Message
}

// Unwrap returns the underlying error, if any.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
