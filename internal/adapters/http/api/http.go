// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/adapters/repository"
	service "github.com/okian/roster/internal/app"
	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Match runs one matching pass for a staffing request.
	Match(ctx context.Context, requestID uuid.UUID, params types.MatchParams) (*types.MatchResult, error)

	// Accept and Reject record a single decision on a log entry.
	Accept(ctx context.Context, logEntryID, acceptorID uuid.UUID) (*model.StaffingRequest, error)
	Reject(ctx context.Context, logEntryID uuid.UUID, reason string) error

	// Logs exposes the historical matching audit trail.
	Logs(ctx context.Context, filter types.LogFilter) ([]model.MatchingLogEntry, error)

	// EnqueueRefresh submits an async snapshot rebuild. Sentinel errors
	// distinguish duplicates from backpressure.
	EnqueueRefresh(ctx context.Context, employeeID uuid.UUID, kind model.RefreshKind) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	matchHandler    *MatchHandler
	decisionHandler *DecisionHandler
	logsHandler     *LogsHandler
	refreshHandler  *RefreshHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		matchHandler:    NewMatchHandler(deps),
		decisionHandler: NewDecisionHandler(deps),
		logsHandler:     NewLogsHandler(deps),
		refreshHandler:  NewRefreshHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/staffing-needs/", MetricsMiddleware(s.matchHandler.HandleMatch, "match"))
	mux.HandleFunc("/matching-logs", MetricsMiddleware(s.logsHandler.HandleListLogs, "logs"))
	mux.HandleFunc("/matching-logs/", MetricsMiddleware(s.decisionHandler.HandleDecision, "decision"))
	mux.HandleFunc("/employees/", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates store and service sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrRequestFilled):
		writeError(w, http.StatusConflict, "request_filled", err)
	case errors.Is(err, repository.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, "already_decided", err)
	case errors.Is(err, service.ErrInvalidKind):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrQueueSaturated):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// parsePathID extracts the UUID path segment between prefix and suffix,
// e.g. /staffing-needs/{id}/match.
func parsePathID(path, prefix, suffix string) (uuid.UUID, bool) {
	if len(path) <= len(prefix)+len(suffix) {
		return uuid.Nil, false
	}
	if path[:len(prefix)] != prefix || path[len(path)-len(suffix):] != suffix {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(path[len(prefix) : len(path)-len(suffix)])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
