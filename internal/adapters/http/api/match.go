// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/types"
)

// MatchDependencies defines the interface for matching operations.
type MatchDependencies interface {
	Match(ctx context.Context, requestID uuid.UUID, params types.MatchParams) (*types.MatchResult, error)
}

// MatchHandler handles matching run requests.
type MatchHandler struct {
	deps MatchDependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps MatchDependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// matchRequest mirrors the OpenAPI schema for POST /staffing-needs/{id}/match.
// The body is optional and overrides the query parameters when present.
type matchRequest struct {
	TopN              *int  `json:"top_n"`
	IncludeOverloaded *bool `json:"include_overloaded"`
}

// HandleMatch handles POST /staffing-needs/{id}/match requests. Tuning comes
// from the top_n and include_overloaded query parameters or a JSON body.
func (h *MatchHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	requestID, ok := parsePathID(r.URL.Path, "/staffing-needs/", "/match")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	var params types.MatchParams
	q := r.URL.Query()
	if raw := q.Get("top_n"); raw != "" {
		topN, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		params.TopN = topN
	}
	if raw := q.Get("include_overloaded"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		params.IncludeOverloaded = include
	}

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.TopN != nil {
		params.TopN = *req.TopN
	}
	if req.IncludeOverloaded != nil {
		params.IncludeOverloaded = *req.IncludeOverloaded
	}
	if params.TopN < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("top_n must not be negative"))
		return
	}

	result, err := h.deps.Match(r.Context(), requestID, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
