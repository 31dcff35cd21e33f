// Package debounce suppresses repeated routing of anomalies within a
// cooldown window. Each downstream target (leaderboard insertion, escalation
// routing) holds its own independent Gate.
package debounce

import (
	"time"
)

const defaultCooldown = 5 * time.Second

// Gate tracks the last admitted action for one routing target. Not safe for
// concurrent use; the frame loop is the single caller.
type Gate struct {
	cooldown time.Duration
	last     time.Time
	prev     time.Time
}

// NewGate creates a gate whose first TryAdmit always succeeds.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		cooldown: defaultCooldown,
	}

	// Apply all options
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// TryAdmit returns true and advances the gate iff the cooldown has elapsed
// since the last admitted action. On rejection the gate state is unchanged.
func (g *Gate) TryAdmit(now time.Time) bool {
	if !g.last.IsZero() && now.Sub(g.last) <= g.cooldown {
		return false
	}
	g.prev = g.last
	g.last = now
	return true
}

// Revoke rolls the gate back to its state before the most recent admit.
// Used when an admitted action was ultimately abandoned (e.g. the
// leaderboard declined the entry), so the debounce clock is left unchanged.
func (g *Gate) Revoke() {
	g.last = g.prev
}

// Last returns the timestamp of the last admitted action.
func (g *Gate) Last() time.Time { return g.last }

// Cooldown returns the configured cooldown interval.
func (g *Gate) Cooldown() time.Duration { return g.cooldown }
