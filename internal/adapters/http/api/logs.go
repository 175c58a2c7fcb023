// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/types"
)

// LogsDependencies defines the interface for audit trail queries.
type LogsDependencies interface {
	Logs(ctx context.Context, filter types.LogFilter) ([]model.MatchingLogEntry, error)
}

// LogsHandler handles matching log queries.
type LogsHandler struct {
	deps LogsDependencies
}

// NewLogsHandler creates a new logs handler.
func NewLogsHandler(deps LogsDependencies) *LogsHandler {
	return &LogsHandler{deps: deps}
}

// logsResponse wraps the returned entries with a count for convenience.
type logsResponse struct {
	Count   int                      `json:"count"`
	Entries []model.MatchingLogEntry `json:"entries"`
}

// HandleListLogs handles GET /matching-logs requests. Supported query
// parameters: staffing_need_id (alias staffing_request_id), employee_id,
// project_id, limit.
func (h *LogsHandler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	var filter types.LogFilter
	q := r.URL.Query()
	for param, dst := range map[string]*uuid.UUID{
		"staffing_need_id":    &filter.StaffingRequestID,
		"staffing_request_id": &filter.StaffingRequestID,
		"employee_id":         &filter.EmployeeID,
		"project_id":          &filter.ProjectID,
	} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		*dst = id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		filter.Limit = limit
	}

	entries, err := h.deps.Logs(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []model.MatchingLogEntry{}
	}
	writeJSON(w, http.StatusOK, logsResponse{Count: len(entries), Entries: entries})
}
