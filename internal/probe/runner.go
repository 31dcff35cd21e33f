// Package probe exercises a running service end to end: it subscribes to the
// verdict stream, reads the leaderboard, and optionally renames the current
// top threat entry.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/victorbjor/security-bot/pkg/logger"
)

// Run executes a probe against the configured service.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("probe")
	stats := &Stats{
		LevelCounts: make(map[string]int),
		StartTime:   time.Now(),
	}

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	// Confirm the service is up before the stream subscription.
	svcStats, err := client.FetchStats(ctx)
	if err != nil {
		return fmt.Errorf("service unreachable: %w", err)
	}
	log.Info(ctx, "service reachable",
		logger.Any("frames_ingested", svcStats["frames_ingested"]),
		logger.Any("queue_length", svcStats["queue_length"]),
	)

	// Listen for verdicts.
	if cfg.ListenFor > 0 {
		log.Info(ctx, "subscribing to verdict stream", logger.Duration("listen_for", cfg.ListenFor))
		events, err := StreamVerdicts(ctx, cfg.BaseURL, cfg.ListenFor)
		if err != nil {
			return fmt.Errorf("verdict stream: %w", err)
		}
		stats.VerdictsReceived = len(events)
		for _, e := range events {
			stats.LevelCounts[string(e.Decision.Level)]++
			if cfg.Verbose {
				log.Info(ctx, "verdict received",
					logger.String("level", string(e.Decision.Level)),
					logger.String("reason", e.Decision.Reason),
				)
			}
		}
	}

	// Read the boards.
	nice, threat, err := client.FetchLeaderboard(ctx)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}
	stats.NiceEntries = len(nice)
	stats.ThreatEntries = len(threat)

	// Optionally rename the current top threat.
	if cfg.RenameTo != "" && len(threat) > 0 {
		if err := client.UpdateName(ctx, threat[0].ID, cfg.RenameTo); err != nil {
			return fmt.Errorf("rename: %w", err)
		}
		stats.Renamed = true
		log.Info(ctx, "renamed top threat entry",
			logger.String("id", threat[0].ID),
			logger.String("name", cfg.RenameTo),
		)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	report(ctx, log, stats)
	return nil
}

func report(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "probe finished",
		logger.Duration("duration", stats.Duration),
		logger.Int("verdicts_received", stats.VerdictsReceived),
		logger.Int("nice_entries", stats.NiceEntries),
		logger.Int("threat_entries", stats.ThreatEntries),
		logger.Any("levels", stats.LevelCounts),
	)
}
