// Package ws maintains the verdict event stream over WebSocket.
//
// The hub owns the client set. Workers publish finished verdicts here and
// every connected subscriber receives them as JSON text frames. A subscriber
// that cannot keep up is dropped rather than allowed to stall the stream.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/victorbjor/security-bot/internal/domain/model"
	"github.com/victorbjor/security-bot/pkg/logger"
	"github.com/victorbjor/security-bot/pkg/metrics"
)

const broadcastBuffer = 256

// Hub maintains active WebSocket connections and broadcasts verdicts.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound verdict frames
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	logger logger.Logger
}

// NewHub creates a hub bound to ctx.
func NewHub(ctx context.Context) *Hub {
	hubCtx, cancel := context.WithCancel(ctx)
	return &Hub{
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		ctx:        hubCtx,
		cancel:     cancel,
		logger:     logger.Get().Named("ws-hub"),
	}
}

// Run processes registrations and broadcasts until the hub stops.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			metrics.UpdateWSClients(len(h.clients))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			metrics.UpdateWSClients(len(h.clients))
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.RecordWSMessageSent()
				default:
					// Client buffer full, drop the subscriber
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn(h.ctx, "dropping slow subscriber", logger.String("client_id", client.id))
				}
			}
			metrics.UpdateWSClients(len(h.clients))
			h.mu.Unlock()
		}
	}
}

// Stop stops the hub and disconnects all clients.
func (h *Hub) Stop() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.UpdateWSClients(0)
}

// Publish broadcasts a verdict event to all subscribers. It satisfies the
// worker sink contract.
func (h *Hub) Publish(_ context.Context, event model.VerdictEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}

	select {
	case <-h.ctx.Done():
		return fmt.Errorf("%w: %v", ErrHubStopped, h.ctx.Err())
	default:
	}

	select {
	case h.broadcast <- data:
		return nil
	case <-h.ctx.Done():
		return fmt.Errorf("%w: %v", ErrHubStopped, h.ctx.Err())
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
