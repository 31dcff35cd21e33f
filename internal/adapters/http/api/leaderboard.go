// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/victorbjor/security-bot/internal/domain/model"
)

// LeaderboardDependencies defines the interface for leaderboard reads.
type LeaderboardDependencies interface {
	Snapshot(ctx context.Context) (nice []model.Entry, threat []model.Entry)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// leaderboardResponse mirrors the wire shape for GET /leaderboard.
type leaderboardResponse struct {
	Nice   []model.Entry `json:"nice"`
	Threat []model.Entry `json:"threat"`
}

// HandleGetLeaderboard handles GET /leaderboard requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	nice, threat := h.deps.Snapshot(r.Context())
	if nice == nil {
		nice = []model.Entry{}
	}
	if threat == nil {
		threat = []model.Entry{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Nice: nice, Threat: threat})
}
