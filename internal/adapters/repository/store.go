// Package repository defines the leaderboard store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/victorbjor/security-bot/internal/domain/model"
)

// Store provides read/write access to the dual leaderboard state.
type Store interface {
	// Consider offers a scored capture to both boards. It inserts the entry
	// into every board whose admission rule it satisfies and returns true if
	// at least one board accepted it.
	Consider(ctx context.Context, image []byte, score float64, capturedAt time.Time) (bool, error)

	// Rename sets the display name of the entry with the given id on
	// whichever board holds it. Returns false if no board holds the id.
	Rename(ctx context.Context, id string, name string) (bool, error)

	// Snapshot returns copies of both boards in rank order.
	Snapshot(ctx context.Context) (nice []model.Entry, threat []model.Entry)
}
