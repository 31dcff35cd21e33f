// Package detect defines the contract for the upstream detection/embedding
// collaborator that yields scored sub-images per frame.
//
// The real detector (object detection plus embedding similarity) lives
// outside this repository; the Simulator stands in for it during development
// and testing.
package detect

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/victorbjor/security-bot/internal/domain/model"
)

// Default simulator configuration constants.
const (
	defaultFrameInterval = 100 * time.Millisecond
	defaultAnomalyRate   = 0.01
	defaultMaxPerFrame   = 3
	defaultRandomSeed    = 42

	normalScoreMean   = 0.5
	normalScoreStdDev = 0.1
	anomalyScoreMin   = 0.85
	syntheticCropSize = 256
)

// Source yields the next frame's detections. Implementations may block until
// a frame is available and must honor ctx cancellation.
type Source interface {
	Next(ctx context.Context) (model.Frame, error)
}

// Simulator implements Source with synthetic crops and scores drawn from a
// seeded generator, modeling the external detector the way an external ML
// service would behave.
type Simulator struct {
	frameInterval time.Duration
	anomalyRate   float64
	maxPerFrame   int
	rng           *rand.Rand
}

// NewSimulator creates a simulator with configuration options.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		frameInterval: defaultFrameInterval,
		anomalyRate:   defaultAnomalyRate,
		maxPerFrame:   defaultMaxPerFrame,
		rng:           rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible frames
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Next waits one frame interval and returns a synthetic frame. Frames may
// carry zero detections; that is a valid frame, not an error.
func (s *Simulator) Next(ctx context.Context) (model.Frame, error) {
	select {
	case <-ctx.Done():
		return model.Frame{}, fmt.Errorf("frame source stopped: %w", ctx.Err())
	case <-time.After(s.frameInterval):
	}

	now := time.Now()
	count := s.rng.Intn(s.maxPerFrame + 1)
	detections := make([]model.Detection, 0, count)
	for i := 0; i < count; i++ {
		detections = append(detections, model.Detection{
			Image:      s.syntheticCrop(),
			Score:      s.nextScore(),
			CapturedAt: now,
		})
	}

	return model.Frame{Detections: detections, CapturedAt: now}, nil
}

// nextScore draws from the normal background distribution, or an outlier
// band at the configured anomaly rate.
func (s *Simulator) nextScore() float64 {
	if s.rng.Float64() < s.anomalyRate {
		return anomalyScoreMin + s.rng.Float64()*(1-anomalyScoreMin)
	}
	score := normalScoreMean + s.rng.NormFloat64()*normalScoreStdDev
	return math.Max(0, math.Min(1, score))
}

// syntheticCrop produces an opaque JPEG-framed payload. The bytes only need
// to be stable, unique-ish content for hashing and data-URI encoding; no
// renderer ever decodes them.
func (s *Simulator) syntheticCrop() []byte {
	body := make([]byte, syntheticCropSize)
	binary.BigEndian.PutUint64(body, s.rng.Uint64())
	s.rng.Read(body[8:]) //nolint:errcheck // rand.Read never fails

	crop := make([]byte, 0, syntheticCropSize+4)
	crop = append(crop, 0xFF, 0xD8) // SOI
	crop = append(crop, body...)
	crop = append(crop, 0xFF, 0xD9) // EOI
	return crop
}
