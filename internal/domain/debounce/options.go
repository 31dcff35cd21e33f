// Package debounce suppresses repeated routing of anomalies within a cooldown window.
package debounce

import "time"

// Option applies a configuration option to the Gate.
type Option func(*Gate)

// WithCooldown sets the minimum interval between admitted actions.
func WithCooldown(cooldown time.Duration) Option {
	return func(g *Gate) {
		if cooldown > 0 {
			g.cooldown = cooldown
		}
	}
}
