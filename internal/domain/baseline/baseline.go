// Package baseline maintains the online statistical baseline of similarity
// scores and derives z-scores from it.
package baseline

import (
	"math"
)

// Default baseline configuration constants.
const (
	// defaultAlpha keeps the baseline adapting slowly so the detector reacts
	// to sudden deviations rather than gradual drift.
	defaultAlpha  = 0.0001
	defaultCutoff = 2.0
)

// Estimator tracks an exponentially-weighted mean and variance of a score
// stream. It is deliberately not safe for concurrent use: the frame loop is
// the single writer, and callers introducing more writers must serialize
// the Update calls themselves.
type Estimator struct {
	alpha    float64
	mean     float64
	variance float64
	cutoff   float64
	count    int64
}

// NewEstimator creates an estimator seeded with a deterministic prior.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		alpha:  defaultAlpha,
		cutoff: defaultCutoff,
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Update folds a new score into the running statistics and returns its
// z-score against the updated baseline. The variance update uses the already
// shifted mean. Always finite for finite input: when the variance is zero
// the divisor falls back to 1.0 to cover the cold-start period.
func (e *Estimator) Update(score float64) float64 {
	e.mean = (1-e.alpha)*e.mean + e.alpha*score
	e.variance = (1-e.alpha)*e.variance + e.alpha*(score-e.mean)*(score-e.mean)
	if e.variance < 0 {
		e.variance = 0
	}
	e.count++

	stdDev := 1.0
	if e.variance > 0 {
		stdDev = math.Sqrt(e.variance)
	}
	return (score - e.mean) / stdDev
}

// Anomalous reports whether a z-score exceeds the configured cutoff.
// Pure function of the input; monotonic in z.
func (e *Estimator) Anomalous(z float64) bool {
	return z > e.cutoff
}

// Mean returns the current exponentially-weighted mean.
func (e *Estimator) Mean() float64 { return e.mean }

// Variance returns the current exponentially-weighted variance.
func (e *Estimator) Variance() float64 { return e.variance }

// Cutoff returns the anomaly cutoff in use.
func (e *Estimator) Cutoff() float64 { return e.cutoff }

// Count returns the number of scores folded in so far.
func (e *Estimator) Count() int64 { return e.count }
