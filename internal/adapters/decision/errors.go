package decision

import "errors"

// Sentinel kinds for decision errors.
var (
	ErrEmptyImage      = errors.New("empty capture image")
	ErrUnreachable     = errors.New("completion endpoint unreachable")
	ErrCompletion      = errors.New("completion failed")
	ErrMalformedAnswer = errors.New("malformed decision answer")
)
