// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
)

// Candidate represents one ranked candidate returned by a matching run.
type Candidate struct {
	Rank          int                   `json:"rank"`
	EmployeeID    uuid.UUID             `json:"employee_id"`
	EmployeeName  string                `json:"employee_name"`
	TotalScore    float64               `json:"total_score"`
	Tier          model.Tier            `json:"tier"`
	Dimensions    model.DimensionScores `json:"dimensions"`
	LogEntryID    uuid.UUID             `json:"log_entry_id"`
	MissingSkills []string              `json:"missing_skills,omitempty"`
}

// MatchResult is the outcome of one matching run.
type MatchResult struct {
	RunID             uuid.UUID   `json:"run_id"`
	StaffingRequestID uuid.UUID   `json:"staffing_request_id"`
	PriorityThreshold float64     `json:"priority_threshold"`
	QualifiedCount    int         `json:"qualified_count"`
	MatchedAt         time.Time   `json:"matched_at"`
	Candidates        []Candidate `json:"candidates"`
}

// MatchParams tunes one matching run.
type MatchParams struct {
	// TopN caps the number of ranked candidates returned and logged.
	// Zero means the configured default.
	TopN int

	// IncludeOverloaded disables the hard workload pre-filter so fully
	// booked employees are still scored.
	IncludeOverloaded bool
}

// LogFilter narrows a historical matching-log query. Zero values match all.
type LogFilter struct {
	ProjectID         uuid.UUID
	StaffingRequestID uuid.UUID
	EmployeeID        uuid.UUID
	Limit             int
}
