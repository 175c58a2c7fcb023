// Package repository defines the persistence interfaces and errors for the
// matching engine.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/types"
)

// RequestStore reads staffing requests and mutates their lifecycle fields.
// The engine owns only Status and FilledCount; everything else is written
// by the upstream planning process.
type RequestStore interface {
	// GetStaffingRequest returns ErrNotFound when the request is absent.
	GetStaffingRequest(ctx context.Context, id uuid.UUID) (*model.StaffingRequest, error)

	// SetRequestStatus sets the lifecycle status unconditionally.
	SetRequestStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) error

	// IncrementFilled atomically increments FilledCount while it is below
	// Headcount, transitioning the request to FILLED when the increment
	// reaches it. Returns the request state after the increment.
	// Returns ErrRequestFilled when the request was already full and
	// ErrNotFound when it is absent.
	IncrementFilled(ctx context.Context, id uuid.UUID) (*model.StaffingRequest, error)
}

// CandidateStore reads the employee universe and the capability inputs the
// scorers consume. All reads are point-in-time; the engine never writes
// identity, evaluation or performance rows.
type CandidateStore interface {
	ListActiveEmployees(ctx context.Context) ([]model.Employee, error)

	// GetProfiles returns the profiles that exist for the given employees,
	// keyed by employee ID. Missing profiles are simply absent from the map.
	GetProfiles(ctx context.Context, employeeIDs []uuid.UUID) (map[uuid.UUID]*model.CapabilityProfile, error)

	// ListValidEvaluations returns valid evaluations ordered by evaluate
	// date ascending, so later assertions win during profile rebuild.
	ListValidEvaluations(ctx context.Context, employeeID uuid.UUID) ([]model.TagEvaluation, error)

	ListPerformanceRecords(ctx context.Context, employeeID uuid.UUID) ([]model.ProjectPerformanceRecord, error)

	// ListActiveAssignments returns assignments with no end date or an end
	// date in the future.
	ListActiveAssignments(ctx context.Context, employeeID uuid.UUID) ([]model.ProjectAssignment, error)
}

// ProfileStore persists the materialized capability snapshots.
type ProfileStore interface {
	// SaveProfile overwrites the whole profile row (full rebuild, not an
	// incremental merge).
	SaveProfile(ctx context.Context, profile *model.CapabilityProfile) error

	// UpdateWorkload upserts only the workload fields, leaving the tag
	// collections untouched.
	UpdateWorkload(ctx context.Context, employeeID uuid.UUID, workloadPct, availableHours float64) error
}

// LogStore persists the immutable audit trail and its decision fields.
type LogStore interface {
	CreateLogEntries(ctx context.Context, entries []model.MatchingLogEntry) error

	// GetLogEntry returns ErrNotFound when the entry is absent.
	GetLogEntry(ctx context.Context, id uuid.UUID) (*model.MatchingLogEntry, error)

	// MarkAccepted transitions an undecided entry to accepted.
	// Returns ErrAlreadyDecided when a decision was already recorded.
	MarkAccepted(ctx context.Context, id uuid.UUID, acceptorID uuid.UUID, at time.Time) error

	// MarkRejected transitions an undecided entry to rejected.
	// Returns ErrAlreadyDecided when a decision was already recorded.
	MarkRejected(ctx context.Context, id uuid.UUID, reason string, at time.Time) error

	// ListLogs returns log entries matching the filter, newest first.
	ListLogs(ctx context.Context, filter types.LogFilter) ([]model.MatchingLogEntry, error)
}

// Store provides read/write access to all engine state.
type Store interface {
	RequestStore
	CandidateStore
	ProfileStore
	LogStore
}
