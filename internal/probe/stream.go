package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/victorbjor/security-bot/internal/domain/model"
)

// WSURL derives the verdict stream endpoint from the service base URL.
func WSURL(baseURL string) string {
	ws := baseURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return ws + "/ws/verdicts"
}

// StreamVerdicts subscribes to the verdict stream and collects events until
// the listen window elapses or ctx is cancelled.
func StreamVerdicts(ctx context.Context, baseURL string, listenFor time.Duration) ([]model.VerdictEvent, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, WSURL(baseURL), nil)
	if err != nil {
		return nil, fmt.Errorf("dial verdict stream: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	deadline := time.Now().Add(listenFor)
	var events []model.VerdictEvent
	for {
		if ctx.Err() != nil {
			return events, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return events, nil
		}
		_ = conn.SetReadDeadline(time.Now().Add(remaining))

		_, frame, err := conn.ReadMessage()
		if err != nil {
			// A read timeout just means the window closed quietly.
			if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
				return events, nil
			}
			return events, fmt.Errorf("read verdict: %w", err)
		}

		var event model.VerdictEvent
		if err := json.Unmarshal(frame, &event); err != nil {
			return events, fmt.Errorf("decode verdict: %w", err)
		}
		events = append(events, event)
	}
}
