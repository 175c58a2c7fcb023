package loadtest

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
)

// Config holds configuration for the matching load test.
type Config struct {
	BaseURL      string        // Base URL of the service
	DatabaseDSN  string        // Postgres DSN for seeding the dataset
	NumEmployees int           // Number of employees to generate
	NumRequests  int           // Number of staffing requests to generate
	TopN         int           // Candidates requested per matching run
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	SettleDelay  time.Duration // Wait after refresh submission before matching
	AcceptShare  float64       // Share of matched requests to accept (0-1)
	OutputFile   string        // Output file for the generated dataset
	LogFile      string        // Log file for test output
	Verbose      bool          // Enable verbose logging
}

// Dataset is the generated fixture seeded into the database.
type Dataset struct {
	Employees   []model.Employee                 `json:"employees"`
	Evaluations []model.TagEvaluation            `json:"evaluations"`
	Performance []model.ProjectPerformanceRecord `json:"performance"`
	Assignments []model.ProjectAssignment        `json:"assignments"`
	Requests    []model.StaffingRequest          `json:"requests"`
}

// Candidate mirrors one ranked candidate in a match response.
type Candidate struct {
	Rank       int       `json:"rank"`
	EmployeeID uuid.UUID `json:"employee_id"`
	TotalScore float64   `json:"total_score"`
	Tier       string    `json:"tier"`
	LogEntryID uuid.UUID `json:"log_entry_id"`
}

// MatchRun mirrors the response of one matching run.
type MatchRun struct {
	RunID             uuid.UUID   `json:"run_id"`
	StaffingRequestID uuid.UUID   `json:"staffing_request_id"`
	PriorityThreshold float64     `json:"priority_threshold"`
	QualifiedCount    int         `json:"qualified_count"`
	Candidates        []Candidate `json:"candidates"`
}

// AckResponse represents the response from a refresh submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// AcceptResponse reports the request state after a slot was claimed.
type AcceptResponse struct {
	Status      string `json:"status"`
	FilledCount int    `json:"filled_count"`
	Headcount   int    `json:"headcount"`
}

// LogsResponse mirrors the matching-log listing envelope.
type LogsResponse struct {
	Count   int                      `json:"count"`
	Entries []model.MatchingLogEntry `json:"entries"`
}

// Stats holds test statistics.
type Stats struct {
	EmployeesGenerated  int
	EvaluationsSeeded   int
	RequestsGenerated   int
	RefreshesSubmitted  int
	RefreshesAccepted   int
	RefreshesDuplicate  int
	RefreshesFailed     int
	MatchRunsCompleted  int
	MatchRunsFailed     int
	CandidatesReturned  int
	AcceptsSucceeded    int
	AcceptsConflicted   int
	RejectsSucceeded    int
	LogEntriesRetrieved int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
