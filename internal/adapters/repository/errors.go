package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrEmptyImage  = errors.New("empty capture image")
	ErrPersist     = errors.New("leaderboard persist failed")
	ErrLoad        = errors.New("leaderboard load failed")
	ErrInvalidSize = errors.New("invalid leaderboard size")
)
