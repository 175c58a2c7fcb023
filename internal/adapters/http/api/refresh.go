// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	service "github.com/okian/roster/internal/app"
	"github.com/okian/roster/internal/domain/model"
)

// RefreshDependencies defines the interface for refresh submissions.
type RefreshDependencies interface {
	EnqueueRefresh(ctx context.Context, employeeID uuid.UUID, kind model.RefreshKind) error
}

// RefreshHandler handles profile and workload refresh submissions.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

// refreshRequest mirrors the OpenAPI schema for POST /employees/{id}/refresh.
// Kind "all" submits both snapshot rebuilds.
type refreshRequest struct {
	Kind model.RefreshKind `json:"kind"`
}

const refreshKindAll model.RefreshKind = "all"

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandleRefresh handles POST /employees/{id}/refresh requests.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	employeeID, ok := parsePathID(r.URL.Path, "/employees/", "/refresh")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	kinds := []model.RefreshKind{req.Kind}
	if req.Kind == refreshKindAll {
		kinds = []model.RefreshKind{model.RefreshProfile, model.RefreshWorkload}
	}

	accepted := false
	for _, kind := range kinds {
		err := h.deps.EnqueueRefresh(r.Context(), employeeID, kind)
		if errors.Is(err, service.ErrRefreshInFlight) {
			// Same rebuild already queued: counts as a duplicate ack.
			continue
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		accepted = true
	}
	if !accepted {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
