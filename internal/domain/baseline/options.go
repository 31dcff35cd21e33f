// Package baseline maintains the online statistical baseline of similarity scores.
package baseline

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithAlpha sets the EMA smoothing factor.
func WithAlpha(alpha float64) Option {
	return func(e *Estimator) {
		if alpha > 0 && alpha < 1 {
			e.alpha = alpha
		}
	}
}

// WithSeed sets the prior mean and variance the estimator starts from.
func WithSeed(mean, variance float64) Option {
	return func(e *Estimator) {
		e.mean = mean
		if variance >= 0 {
			e.variance = variance
		}
	}
}

// WithCutoff sets the z-score above which a detection counts as anomalous.
func WithCutoff(cutoff float64) Option {
	return func(e *Estimator) {
		e.cutoff = cutoff
	}
}
