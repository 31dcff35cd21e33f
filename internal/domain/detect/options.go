package detect

import (
	"math/rand"
	"time"
)

// Option configures a Simulator.
type Option func(*Simulator)

// WithFrameInterval sets the delay between frames.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Simulator) {
		if d > 0 {
			s.frameInterval = d
		}
	}
}

// WithAnomalyRate sets the probability that a detection scores in the
// outlier band. Values outside [0, 1] are ignored.
func WithAnomalyRate(rate float64) Option {
	return func(s *Simulator) {
		if rate >= 0 && rate <= 1 {
			s.anomalyRate = rate
		}
	}
}

// WithMaxPerFrame caps the number of detections per frame.
func WithMaxPerFrame(n int) Option {
	return func(s *Simulator) {
		if n >= 0 {
			s.maxPerFrame = n
		}
	}
}

// WithSeed makes the frame stream deterministic for a given seed.
func WithSeed(seed int64) Option {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducibility, not cryptography
	}
}
