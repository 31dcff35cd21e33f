// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// RenameDependencies defines the interface for renaming entries.
type RenameDependencies interface {
	Rename(ctx context.Context, id string, name string) (bool, error)
}

// RenameHandler handles display-name updates.
type RenameHandler struct {
	deps RenameDependencies
}

// NewRenameHandler creates a new rename handler.
func NewRenameHandler(deps RenameDependencies) *RenameHandler {
	return &RenameHandler{deps: deps}
}

// renameRequest mirrors the wire shape for POST /update-name.
type renameRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r renameRequest) validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return errors.New("missing id")
	case strings.TrimSpace(r.Name) == "":
		return errors.New("missing name")
	}
	return nil
}

type renameResponse struct {
	Status string `json:"status"`
}

// HandleUpdateName handles POST /update-name requests.
func (h *RenameHandler) HandleUpdateName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	found, err := h.deps.Rename(r.Context(), req.ID, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", ErrUnknownEntry)
		return
	}
	writeJSON(w, http.StatusOK, renameResponse{Status: "ok"})
}
