package ws

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/victorbjor/security-bot/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Browser dashboards connect from arbitrary origins
		return true
	},
}

// Handler upgrades HTTP requests into verdict stream subscriptions.
type Handler struct {
	hub    *Hub
	ctx    context.Context
	logger logger.Logger
}

// NewHandler creates a handler bound to the hub.
func NewHandler(ctx context.Context, hub *Hub) *Handler {
	return &Handler{
		hub:    hub,
		ctx:    ctx,
		logger: logger.Get().Named("ws-handler"),
	}
}

// ServeWS handles websocket requests from subscribers.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "upgrade failed", logger.Error(err))
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h.ctx, h.hub, conn, clientID)

	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info(r.Context(), "subscriber connected", logger.String("client_id", clientID))
}
