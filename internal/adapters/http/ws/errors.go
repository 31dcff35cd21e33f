package ws

import "errors"

// Sentinel kinds for stream errors.
var (
	ErrHubStopped = errors.New("verdict hub stopped")
)
