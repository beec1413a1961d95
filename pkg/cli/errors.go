package cli

import "errors"

// Common CLI errors
var (
	ErrURLsDenied    = errors.New("one or more urls were denied")
	ErrFeedDisabled  = errors.New("wsfeed is disabled by configuration (enabled: false)")
	ErrAllowRequired = errors.New("at least one --allow entry is required")
)
