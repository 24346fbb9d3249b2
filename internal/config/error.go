package config

import "errors"

var (
	// ErrInvalidConfiguration is returned when the assembled configuration
	// fails validation.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
