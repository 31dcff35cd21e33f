// Package worker defines the consumers that drain escalated detections and
// turn them into published verdicts.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/victorbjor/security-bot/internal/domain/model"
	"github.com/victorbjor/security-bot/pkg/logger"
	"github.com/victorbjor/security-bot/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 1
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Detection abstracts what workers read off the queue.
// Using the model.Detection type for consistency.
type Detection = model.Detection

// Decider turns a captured image into an escalation decision.
type Decider interface {
	Decide(ctx context.Context, image []byte) (model.Decision, error)
}

// Sink receives finished verdicts for delivery to subscribers.
type Sink interface {
	Publish(ctx context.Context, event model.VerdictEvent) error
}

// Queue defines how workers receive detections.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Detection
}

// Worker processes escalated detections until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any in-flight detection before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing detections.
type InMemoryWorker struct {
	queue   Queue
	decider Decider
	sink    Sink
	name    string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, decider Decider, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		decider:  decider,
		sink:     sink,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	detectionChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case detection, ok := <-detectionChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			// Decision failures are logged and dropped: a stuck or broken
			// decider must never back up the queue.
			if err := w.processDetection(ctx, detection); err != nil {
				w.logger.Error(ctx, "error processing detection", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processDetection handles a single escalated detection.
func (w *InMemoryWorker) processDetection(ctx context.Context, detection Detection) error {
	start := time.Now()
	decision, err := w.decider.Decide(ctx, detection.Image)
	metrics.RecordDecisionLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordDecisionError()
		metrics.RecordErrorByComponent("worker", "decision_error")
		return fmt.Errorf("decision failed: %w", err)
	}

	event := model.VerdictEvent{
		Image:    model.DataURI(detection.Image),
		Decision: decision,
	}
	if err := w.sink.Publish(ctx, event); err != nil {
		metrics.RecordErrorByComponent("worker", "publish_error")
		return fmt.Errorf("verdict publish failed: %w", err)
	}

	metrics.RecordVerdictEmitted()
	w.logger.Info(ctx, "verdict emitted",
		logger.String("level", string(decision.Level)),
		logger.Float64("score", detection.Score),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, decider Decider, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			decider,
			sink,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	// Signal shutdown to all workers
	close(p.shutdown)

	for _, worker := range p.workers {
		close(worker.shutdown)
	}
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new detections
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerActiveCount(0)

	return nil
}
