package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if SECBOT_CONFIG is set
//  3. env (prefix SECBOT_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("SECBOT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: SECBOT_ADDR, SECBOT_Z_CUTOFF, ...
	// Map env keys like SECBOT_Z_CUTOFF -> z_cutoff (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SECBOT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "secbot_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.BaselineAlpha <= 0 || cfg.BaselineAlpha >= 1 {
		return nil, fmt.Errorf("%w: baseline_alpha must be in (0, 1)", ErrInvalidConfig)
	}
	if cfg.LeaderboardSize < 1 {
		return nil, fmt.Errorf("%w: leaderboard_size must be at least 1", ErrInvalidConfig)
	}
	if cfg.EscalationQueueSize < 1 {
		return nil, fmt.Errorf("%w: escalation_queue_size must be at least 1", ErrInvalidConfig)
	}
	return &cfg, nil
}
