package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/victorbjor/security-bot/pkg/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; subscribers only listen
	maxMessageSize = 1024

	sendBuffer = 64
)

// Client represents one verdict stream subscriber.
type Client struct {
	conn *websocket.Conn

	// Buffered channel of outbound frames
	send chan []byte

	hub *Hub

	ctx    context.Context
	cancel context.CancelFunc

	id string

	logger logger.Logger
}

// NewClient wraps an upgraded connection.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, id string) *Client {
	clientCtx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		hub:    hub,
		ctx:    clientCtx,
		cancel: cancel,
		id:     id,
		logger: logger.Get().Named("ws-client"),
	}
}

// ReadPump drains the connection so pings and close frames are processed.
// Inbound payloads are ignored; the verdict stream is one-way.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			if _, _, err := c.conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					c.logger.Warn(c.ctx, "read failed", logger.String("client_id", c.id), logger.Error(err))
				}
				return
			}
		}
	}
}

// WritePump pumps frames from the hub to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close tears down the client connection.
func (c *Client) Close() {
	c.cancel()
}
