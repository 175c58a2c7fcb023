// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
)

// DecisionDependencies defines the interface for decision operations.
type DecisionDependencies interface {
	Accept(ctx context.Context, logEntryID, acceptorID uuid.UUID) (*model.StaffingRequest, error)
	Reject(ctx context.Context, logEntryID uuid.UUID, reason string) error
}

// DecisionHandler handles accept and reject requests on log entries.
type DecisionHandler struct {
	deps DecisionDependencies
}

// NewDecisionHandler creates a new decision handler.
func NewDecisionHandler(deps DecisionDependencies) *DecisionHandler {
	return &DecisionHandler{deps: deps}
}

// acceptRequest mirrors the OpenAPI schema for POST /matching-logs/{id}/accept.
type acceptRequest struct {
	AcceptorID uuid.UUID `json:"acceptor_id"`
}

// rejectRequest mirrors the OpenAPI schema for POST /matching-logs/{id}/reject.
type rejectRequest struct {
	Reason string `json:"reason"`
}

// acceptResponse reports the request state after a slot was claimed.
type acceptResponse struct {
	Status      string `json:"status"`
	FilledCount int    `json:"filled_count"`
	Headcount   int    `json:"headcount"`
}

// HandleDecision handles POST /matching-logs/{id}/accept and
// POST /matching-logs/{id}/reject requests.
func (h *DecisionHandler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if id, ok := parsePathID(r.URL.Path, "/matching-logs/", "/accept"); ok {
		h.handleAccept(w, r, id)
		return
	}
	if id, ok := parsePathID(r.URL.Path, "/matching-logs/", "/reject"); ok {
		h.handleReject(w, r, id)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
}

func (h *DecisionHandler) handleAccept(w http.ResponseWriter, r *http.Request, logEntryID uuid.UUID) {
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.AcceptorID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing acceptor_id"))
		return
	}

	updated, err := h.deps.Accept(r.Context(), logEntryID, req.AcceptorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acceptResponse{
		Status:      string(updated.Status),
		FilledCount: updated.FilledCount,
		Headcount:   updated.Headcount,
	})
}

func (h *DecisionHandler) handleReject(w http.ResponseWriter, r *http.Request, logEntryID uuid.UUID) {
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing reason"))
		return
	}

	if err := h.deps.Reject(r.Context(), logEntryID, req.Reason); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
