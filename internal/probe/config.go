package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL   string        // Base URL of the service
	ListenFor time.Duration // How long to subscribe to the verdict stream
	RenameTo  string        // If set, rename the top threat entry to this
	Timeout   time.Duration // HTTP request timeout
	Verbose   bool          // Enable verbose logging
}

// Stats holds probe statistics.
type Stats struct {
	NiceEntries      int
	ThreatEntries    int
	VerdictsReceived int
	LevelCounts      map[string]int
	Renamed          bool
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
