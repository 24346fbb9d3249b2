package scan

import "errors"

var (
	// ErrNoServersFound is returned when the full wait budget elapses without
	// any host responding on the configured port.
	ErrNoServersFound = errors.New("no servers found")
)
