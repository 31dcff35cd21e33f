// Package queue defines the contract for buffering escalated detections
// between the hot detection path and the slow decision workers.
//
// The in-memory bounded queue rejects new offers when full so the hot path
// never blocks behind a saturated decision stage.
package queue

import (
	"context"
	"sync"

	"github.com/victorbjor/security-bot/internal/domain/model"
	"github.com/victorbjor/security-bot/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 64
)

// Detection represents the payload type flowing through the queue.
// Using the model.Detection type for type safety.
type Detection = model.Detection

// Queue provides non-blocking offer and channel-based dequeue semantics.
type Queue interface {
	// Offer adds a detection to the queue.
	// Returns false if the queue is full or closed and the detection was dropped.
	Offer(ctx context.Context, d Detection) bool

	// Dequeue returns a channel that will receive detections as they become
	// available. The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Detection

	// Len returns the current number of queued detections.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new detections can be offered and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	detections chan Detection
	capacity   int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}

	// Apply all options
	for _, opt := range opts {
		opt(q)
	}

	q.detections = make(chan Detection, q.capacity)

	// Initialize metrics
	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Offer adds a detection to the queue.
func (q *InMemoryQueue) Offer(_ context.Context, d Detection) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.detections <- d:
		metrics.RecordQueueOffer()
		q.updateSizeMetrics()
		return true
	default:
		metrics.RecordQueueRejected()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive detections as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Detection {
	// Wrap the channel to track dequeue metrics
	dequeueChan := make(chan Detection)
	go func() {
		defer close(dequeueChan)
		for detection := range q.detections {
			select {
			case dequeueChan <- detection:
				metrics.RecordQueueDequeue()
				q.updateSizeMetrics()
			case <-ctx.Done():
				return
			}
		}
	}()
	return dequeueChan
}

// Len returns the current number of queued detections.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.detections)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	// Close the channel to signal consumers to stop
	close(q.detections)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) updateSizeMetrics() {
	currentSize := len(q.detections)
	metrics.UpdateQueueSize(currentSize)
	metrics.UpdateQueueUtilization(float64(currentSize) / float64(q.capacity))
}
