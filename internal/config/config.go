// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// DataDir holds the persisted leaderboard files.
	DataDir string `koanf:"data_dir"`

	// BaselineAlpha is the EMA smoothing factor for the score baseline.
	BaselineAlpha float64 `koanf:"baseline_alpha"`

	// SeedMean and SeedVariance initialize the baseline prior.
	SeedMean     float64 `koanf:"seed_mean"`
	SeedVariance float64 `koanf:"seed_variance"`

	// ZCutoff is the z-score above which a detection counts as anomalous.
	// Requires tuning per deployment.
	ZCutoff float64 `koanf:"z_cutoff"`

	// LeaderboardCooldownMS and EscalationCooldownMS set the independent
	// debounce windows for the two routing targets.
	LeaderboardCooldownMS int `koanf:"leaderboard_cooldown_ms"`
	EscalationCooldownMS  int `koanf:"escalation_cooldown_ms"`

	// LeaderboardSize caps each leaderboard collection.
	LeaderboardSize int `koanf:"leaderboard_size"`

	// EscalationQueueSize bounds the in-memory escalation queue.
	EscalationQueueSize int `koanf:"escalation_queue_size"`

	// WorkerCount sets the number of escalation consumer workers. With a
	// single worker verdicts are emitted in submission order.
	WorkerCount int `koanf:"worker_count"`

	// DecisionBaseURL points at an OpenAI-compatible chat completions API.
	DecisionBaseURL string `koanf:"decision_base_url"`

	// DecisionAPIKey is sent as a bearer token; local runtimes ignore it.
	DecisionAPIKey string `koanf:"decision_api_key"`

	// VisionModel describes the image; DecisionModel picks the escalation level.
	VisionModel   string `koanf:"vision_model"`
	DecisionModel string `koanf:"decision_model"`

	// DecisionTimeoutMS bounds a single external decision call.
	DecisionTimeoutMS int `koanf:"decision_timeout_ms"`

	// FrameIntervalMS and AnomalyRate configure the synthetic detection source.
	FrameIntervalMS int     `koanf:"frame_interval_ms"`
	AnomalyRate     float64 `koanf:"anomaly_rate"`
}

// New creates a Config populated with defaults. The seed prior and alpha
// mirror the tuned values of the reference deployment.
func New() *Config {
	c := &Config{
		LogLevel:              "info",
		Addr:                  ":8000",
		DataDir:               "./data",
		BaselineAlpha:         0.0001,
		SeedMean:              0.5,
		SeedVariance:          0.01,
		ZCutoff:               2.0,
		LeaderboardCooldownMS: 5_000,
		EscalationCooldownMS:  5_000,
		LeaderboardSize:       5,
		EscalationQueueSize:   64,
		WorkerCount:           1,
		DecisionBaseURL:       "http://localhost:11434/v1",
		DecisionAPIKey:        "ollama",
		VisionModel:           "llama3.2-vision:11b",
		DecisionModel:         "gemma2:9b",
		DecisionTimeoutMS:     30_000,
		FrameIntervalMS:       100,
		AnomalyRate:           0.01,
	}
	return c
}
