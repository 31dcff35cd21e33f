// Package service provides the core pipeline service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/victorbjor/security-bot/internal/adapters/mq/queue"
	workerpool "github.com/victorbjor/security-bot/internal/adapters/mq/worker"
	"github.com/victorbjor/security-bot/internal/adapters/repository"
	"github.com/victorbjor/security-bot/internal/domain/baseline"
	"github.com/victorbjor/security-bot/internal/domain/debounce"
	"github.com/victorbjor/security-bot/internal/domain/detect"
	"github.com/victorbjor/security-bot/internal/domain/model"
	"github.com/victorbjor/security-bot/pkg/logger"
	"github.com/victorbjor/security-bot/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize       = 64
	defaultWorkerCount     = 1
	defaultLeaderboardSize = 5
	defaultDataDir         = "./data"
	defaultAlpha           = 0.0001
	defaultSeedMean        = 0.5
	defaultSeedVariance    = 0.01
	defaultCutoff          = 2.0
	defaultCooldown        = 5 * time.Second
)

// Service wires the detection pipeline: baseline scoring, debounced routing
// into the leaderboard and the escalation queue, and the decision workers
// that publish verdicts.
type Service struct {
	mu sync.RWMutex

	// Core components
	leaderboard repository.Store
	escalations queue.Queue
	workerPool  *workerpool.Pool
	lbGate      *debounce.Gate
	escGate     *debounce.Gate

	// estimator is written only by the ingest goroutine; baselineMu lets
	// stats reads observe it safely.
	baselineMu sync.Mutex
	estimator  *baseline.Estimator

	// Collaborators
	source  detect.Source
	decider workerpool.Decider
	sink    workerpool.Sink

	// Configuration
	workerCount     int
	queueSize       int
	leaderboardSize int
	dataDir         string
	alpha           float64
	seedMean        float64
	seedVariance    float64
	cutoff          float64
	lbCooldown      time.Duration
	escCooldown     time.Duration

	// State
	started        bool
	stopCh         chan struct{}
	ingestDone     chan struct{}
	framesIngested atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of decision worker goroutines. One worker
// preserves verdict emission order.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the escalation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLeaderboardSize sets the entry cap per board.
func WithLeaderboardSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.leaderboardSize = size
		}
	}
}

// WithDataDir sets the leaderboard persistence directory.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithBaselineAlpha sets the EMA smoothing factor.
func WithBaselineAlpha(alpha float64) Option {
	return func(s *Service) {
		if alpha > 0 && alpha < 1 {
			s.alpha = alpha
		}
	}
}

// WithBaselineSeed sets the baseline priors.
func WithBaselineSeed(mean, variance float64) Option {
	return func(s *Service) {
		s.seedMean = mean
		if variance >= 0 {
			s.seedVariance = variance
		}
	}
}

// WithZCutoff sets the anomaly threshold in standard deviations.
func WithZCutoff(cutoff float64) Option {
	return func(s *Service) {
		s.cutoff = cutoff
	}
}

// WithLeaderboardCooldown sets the leaderboard debounce window.
func WithLeaderboardCooldown(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.lbCooldown = d
		}
	}
}

// WithEscalationCooldown sets the escalation debounce window.
func WithEscalationCooldown(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.escCooldown = d
		}
	}
}

// WithSource sets the frame source driving the pipeline. Without a source
// the service only serves queries; frames can be fed with ProcessFrame.
func WithSource(src detect.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithDecider sets the escalation decider used by the workers.
func WithDecider(d workerpool.Decider) Option {
	return func(s *Service) {
		s.decider = d
	}
}

// WithSink sets the verdict sink used by the workers.
func WithSink(sink workerpool.Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     defaultWorkerCount,
		queueSize:       defaultQueueSize,
		leaderboardSize: defaultLeaderboardSize,
		dataDir:         defaultDataDir,
		alpha:           defaultAlpha,
		seedMean:        defaultSeedMean,
		seedVariance:    defaultSeedVariance,
		cutoff:          defaultCutoff,
		lbCooldown:      defaultCooldown,
		escCooldown:     defaultCooldown,
		stopCh:          make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.decider == nil || s.sink == nil {
		return ErrNotConfigured
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting detection pipeline...")

	store, err := repository.NewFileStore(
		repository.WithSize(s.leaderboardSize),
		repository.WithDataDir(s.dataDir),
	)
	if err != nil {
		return err
	}
	s.leaderboard = store

	s.escalations = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
	)
	s.estimator = baseline.NewEstimator(
		baseline.WithAlpha(s.alpha),
		baseline.WithSeed(s.seedMean, s.seedVariance),
		baseline.WithCutoff(s.cutoff),
	)
	s.lbGate = debounce.NewGate(debounce.WithCooldown(s.lbCooldown))
	s.escGate = debounce.NewGate(debounce.WithCooldown(s.escCooldown))

	s.workerPool = workerpool.NewPool(s.workerCount, s.escalations, s.decider, s.sink)
	s.workerPool.Start(ctx)

	if s.source != nil {
		s.ingestDone = make(chan struct{})
		go s.ingest(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "detection pipeline started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("leaderboardSize", s.leaderboardSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping detection pipeline...")

	// Signal the ingest loop first so no new detections arrive
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	if s.ingestDone != nil {
		<-s.ingestDone
	}

	// Shutdown closes the queue and drains the workers
	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "detection pipeline stopped")
}

// ingest drives the pipeline from the frame source until stopped. It is the
// single writer of the baseline estimator and both debounce gates.
func (s *Service) ingest(ctx context.Context) {
	defer close(s.ingestDone)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		frame, err := s.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error(ctx, "frame source failed", logger.Error(err))
			metrics.RecordErrorByComponent("ingest", "source_error")
			continue
		}
		s.ProcessFrame(ctx, frame)
	}
}

// ProcessFrame scores every detection in the frame and routes anomalies.
// It must only be called from a single goroutine.
func (s *Service) ProcessFrame(ctx context.Context, frame model.Frame) {
	s.framesIngested.Add(1)
	metrics.RecordFrameProcessed()

	for _, d := range frame.Detections {
		s.processDetection(ctx, d)
	}
}

// processDetection updates the baseline, offers every detection to the
// leaderboards, and routes anomalies to the escalation queue. Each routing
// target holds its own debounce clock.
func (s *Service) processDetection(ctx context.Context, d model.Detection) {
	s.baselineMu.Lock()
	z := s.estimator.Update(d.Score)
	mean, variance := s.estimator.Mean(), s.estimator.Variance()
	s.baselineMu.Unlock()
	d.ZScore = z
	metrics.RecordDetectionScored()
	metrics.UpdateBaseline(mean, variance)

	// The nice board ranks purely by score, so even normal detections are
	// candidates for it.
	s.routeToLeaderboard(ctx, d)

	if !s.estimator.Anomalous(z) {
		return
	}
	metrics.RecordAnomalyFlagged()
	s.logger.Debug(ctx, "anomaly flagged",
		logger.Float64("score", d.Score),
		logger.Float64("zscore", z),
	)

	s.routeToEscalation(ctx, d)
}

func (s *Service) routeToLeaderboard(ctx context.Context, d model.Detection) {
	if !s.lbGate.TryAdmit(d.CapturedAt) {
		metrics.RecordDebounceSuppressed("leaderboard")
		return
	}

	accepted, err := s.leaderboard.Consider(ctx, d.Image, d.Score, d.CapturedAt)
	if err != nil {
		s.logger.Error(ctx, "leaderboard consider failed", logger.Error(err))
		metrics.RecordErrorByComponent("leaderboard", "consider_error")
	}
	if !accepted {
		// The boards declined the entry, so the admit must not burn the
		// debounce window.
		s.lbGate.Revoke()
	}
}

func (s *Service) routeToEscalation(ctx context.Context, d model.Detection) {
	if !s.escGate.TryAdmit(d.CapturedAt) {
		metrics.RecordDebounceSuppressed("escalation")
		return
	}

	if !s.escalations.Offer(ctx, d) {
		// Queue full: drop the escalation and free the window for the next
		// anomaly instead of going dark for a whole cooldown.
		s.escGate.Revoke()
		s.logger.Warn(ctx, "escalation queue full, dropping detection",
			logger.Float64("score", d.Score),
		)
	}
}

// Snapshot returns both boards for reads.
func (s *Service) Snapshot(ctx context.Context) ([]model.Entry, []model.Entry) {
	s.mu.RLock()
	store := s.leaderboard
	s.mu.RUnlock()

	if store == nil {
		return nil, nil
	}
	return store.Snapshot(ctx)
}

// Rename updates the display name of a leaderboard entry.
func (s *Service) Rename(ctx context.Context, id string, name string) (bool, error) {
	s.mu.RLock()
	store := s.leaderboard
	s.mu.RUnlock()

	if store == nil {
		return false, ErrNotConfigured
	}
	return store.Rename(ctx, id, name)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"worker_count":     s.workerCount,
		"queue_capacity":   s.queueSize,
		"leaderboard_size": s.leaderboardSize,
		"frames_ingested":  s.framesIngested.Load(),
	}

	if s.started {
		stats["queue_length"] = s.escalations.Len(context.Background())
		s.baselineMu.Lock()
		stats["baseline_mean"] = s.estimator.Mean()
		stats["baseline_variance"] = s.estimator.Variance()
		stats["samples_observed"] = s.estimator.Count()
		s.baselineMu.Unlock()
	}

	return stats
}
