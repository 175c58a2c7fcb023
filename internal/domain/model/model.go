// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Priority is the ordinal urgency level of a staffing request.
type Priority string

// Priority levels, most urgent first.
const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
	PriorityP5 Priority = "P5"
)

// RequestStatus is the lifecycle state of a staffing request.
type RequestStatus string

// Lifecycle: OPEN -> MATCHING -> FILLED.
const (
	StatusOpen     RequestStatus = "OPEN"
	StatusMatching RequestStatus = "MATCHING"
	StatusFilled   RequestStatus = "FILLED"
)

// Tier bands a candidate's total score relative to the priority threshold.
type Tier string

// Recommendation tiers.
const (
	TierStrong      Tier = "STRONG"
	TierRecommended Tier = "RECOMMENDED"
	TierAcceptable  Tier = "ACCEPTABLE"
	TierWeak        Tier = "WEAK"
)

// Contribution is the level of an employee's contribution to a past project.
type Contribution string

// Contribution levels.
const (
	ContributionCore   Contribution = "CORE"
	ContributionMajor  Contribution = "MAJOR"
	ContributionNormal Contribution = "NORMAL"
	ContributionMinor  Contribution = "MINOR"
)

// TagType classifies a capability tag evaluation.
type TagType string

// Tag types feeding the five profile collections.
const (
	TagSkill     TagType = "skill"
	TagDomain    TagType = "domain"
	TagAttitude  TagType = "attitude"
	TagCharacter TagType = "character"
	TagSpecial   TagType = "special"
)

// Requirement is one required or preferred capability on a staffing request.
type Requirement struct {
	TagID    uuid.UUID `json:"tag_id"`
	MinScore int       `json:"min_score"`
	TagName  string    `json:"tag_name"`
}

// ProfileTag is one aggregated capability entry on a profile.
type ProfileTag struct {
	TagID   uuid.UUID `json:"tag_id"`
	TagCode string    `json:"tag_code"`
	TagName string    `json:"tag_name"`
	Score   int       `json:"score"` // 1-5
	Weight  float64   `json:"weight"`
}

// DimensionScores is the six-entry capability breakdown of one candidate.
// All values are within [0,100].
type DimensionScores struct {
	Skill    float64 `json:"skill"`
	Domain   float64 `json:"domain"`
	Attitude float64 `json:"attitude"`
	Quality  float64 `json:"quality"`
	Workload float64 `json:"workload"`
	Special  float64 `json:"special"`
}

// Employee is a read-mostly identity row owned by the organizational system.
type Employee struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name   string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Active bool      `gorm:"column:active;not null;default:true" json:"active"`
}

// ProjectAssignment records an employee's allocation to a project.
// EndDate nil or in the future marks the assignment as currently active.
type ProjectAssignment struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EmployeeID    uuid.UUID  `gorm:"column:employee_id;type:uuid;index;not null" json:"employee_id"`
	ProjectID     uuid.UUID  `gorm:"column:project_id;type:uuid;index;not null" json:"project_id"`
	AllocationPct float64    `gorm:"column:allocation_pct;not null" json:"allocation_pct"`
	StartDate     time.Time  `gorm:"column:start_date" json:"start_date"`
	EndDate       *time.Time `gorm:"column:end_date" json:"end_date"`
}

// StaffingRequest asks for Headcount hires of a role on a project.
// The engine mutates only Status and FilledCount.
type StaffingRequest struct {
	ID                uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID         uuid.UUID     `gorm:"column:project_id;type:uuid;index;not null" json:"project_id"`
	RoleCode          string        `gorm:"column:role_code;type:varchar(64);not null" json:"role_code"`
	RoleName          string        `gorm:"column:role_name;type:varchar(255)" json:"role_name"`
	Headcount         int           `gorm:"column:headcount;not null" json:"headcount"`
	AllocationPct     float64       `gorm:"column:allocation_pct;not null" json:"allocation_pct"`
	Priority          Priority      `gorm:"column:priority;type:varchar(8);not null" json:"priority"`
	RequiredSkills    []Requirement `gorm:"column:required_skills;serializer:json" json:"required_skills"`
	PreferredSkills   []Requirement `gorm:"column:preferred_skills;serializer:json" json:"preferred_skills"`
	RequiredDomains   []Requirement `gorm:"column:required_domains;serializer:json" json:"required_domains"`
	RequiredAttitudes []Requirement `gorm:"column:required_attitudes;serializer:json" json:"required_attitudes"`
	Status            RequestStatus `gorm:"column:status;type:varchar(16);not null;default:OPEN" json:"status"`
	FilledCount       int           `gorm:"column:filled_count;not null;default:0" json:"filled_count"`
	CreatedAt         time.Time     `gorm:"column:created_at" json:"created_at"`
}

// CapabilityProfile is the materialized per-employee capability snapshot.
// Absence of a row means "unknown, assume available/neutral"; each scorer
// applies its own default. Rebuilt wholesale by the profile refresh job.
type CapabilityProfile struct {
	EmployeeID          uuid.UUID    `gorm:"column:employee_id;type:uuid;primaryKey" json:"employee_id"`
	SkillTags           []ProfileTag `gorm:"column:skill_tags;serializer:json" json:"skill_tags"`
	DomainTags          []ProfileTag `gorm:"column:domain_tags;serializer:json" json:"domain_tags"`
	AttitudeTags        []ProfileTag `gorm:"column:attitude_tags;serializer:json" json:"attitude_tags"`
	CharacterTags       []ProfileTag `gorm:"column:character_tags;serializer:json" json:"character_tags"`
	SpecialTags         []ProfileTag `gorm:"column:special_tags;serializer:json" json:"special_tags"`
	AttitudeScore       float64      `gorm:"column:attitude_score" json:"attitude_score"`                 // 0-100
	QualityScore        float64      `gorm:"column:quality_score" json:"quality_score"`                   // 0-100
	CurrentWorkloadPct  float64      `gorm:"column:current_workload_pct" json:"current_workload_pct"`     // 0-100
	AvailableHours      float64      `gorm:"column:available_hours" json:"available_hours"`               // monthly
	TotalProjects       int          `gorm:"column:total_projects" json:"total_projects"`
	AvgPerformanceScore float64      `gorm:"column:avg_performance_score" json:"avg_performance_score"`
	ProfileUpdatedAt    time.Time    `gorm:"column:profile_updated_at" json:"profile_updated_at"`
}

// TagEvaluation is one scored assertion about an employee's capability.
// Source of truth for profile aggregation; invalid rows are excluded from
// every scorer.
type TagEvaluation struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EmployeeID   uuid.UUID `gorm:"column:employee_id;type:uuid;index;not null" json:"employee_id"`
	TagID        uuid.UUID `gorm:"column:tag_id;type:uuid;index;not null" json:"tag_id"`
	TagType      TagType   `gorm:"column:tag_type;type:varchar(16);not null" json:"tag_type"`
	TagCode      string    `gorm:"column:tag_code;type:varchar(64)" json:"tag_code"`
	TagName      string    `gorm:"column:tag_name;type:varchar(255)" json:"tag_name"`
	Score        int       `gorm:"column:score;not null" json:"score"` // 1-5
	Valid        bool      `gorm:"column:valid;not null;default:true" json:"valid"`
	EvaluatorID  uuid.UUID `gorm:"column:evaluator_id;type:uuid" json:"evaluator_id"`
	EvaluateDate time.Time `gorm:"column:evaluate_date" json:"evaluate_date"`
}

// ProjectPerformanceRecord is one historical contribution record, owned by
// the performance-evaluation subsystem and read-only here.
type ProjectPerformanceRecord struct {
	ID                 uuid.UUID    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EmployeeID         uuid.UUID    `gorm:"column:employee_id;type:uuid;index;not null" json:"employee_id"`
	ProjectID          uuid.UUID    `gorm:"column:project_id;type:uuid" json:"project_id"`
	Contribution       Contribution `gorm:"column:contribution;type:varchar(16);not null" json:"contribution"`
	PerformanceScore   *float64     `gorm:"column:performance_score" json:"performance_score"`
	QualityScore       *float64     `gorm:"column:quality_score" json:"quality_score"`
	CollaborationScore *float64     `gorm:"column:collaboration_score" json:"collaboration_score"`
}

// MatchingLogEntry is one immutable audit row per (run, candidate) pair.
// Only the decision fields change after creation, and at most once.
type MatchingLogEntry struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RunID             uuid.UUID       `gorm:"column:run_id;type:uuid;index;not null" json:"run_id"`
	StaffingRequestID uuid.UUID       `gorm:"column:staffing_request_id;type:uuid;index;not null" json:"staffing_request_id"`
	EmployeeID        uuid.UUID       `gorm:"column:employee_id;type:uuid;index;not null" json:"employee_id"`
	TotalScore        float64         `gorm:"column:total_score;not null" json:"total_score"`
	Dimensions        DimensionScores `gorm:"column:dimensions;serializer:json" json:"dimensions"`
	Rank              int             `gorm:"column:rank;not null" json:"rank"`
	Tier              Tier            `gorm:"column:tier;type:varchar(16);not null" json:"tier"`
	MatchedAt         time.Time       `gorm:"column:matched_at;not null" json:"matched_at"`
	Accepted          *bool           `gorm:"column:accepted" json:"accepted"`
	AcceptedAt        *time.Time      `gorm:"column:accepted_at" json:"accepted_at"`
	AcceptorID        *uuid.UUID      `gorm:"column:acceptor_id;type:uuid" json:"acceptor_id"`
	RejectReason      string          `gorm:"column:reject_reason;type:text" json:"reject_reason,omitempty"`
}

// Decided reports whether the entry already carries an accept or reject.
func (e *MatchingLogEntry) Decided() bool {
	return e.Accepted != nil
}

// RefreshKind selects which snapshot a refresh task rebuilds.
type RefreshKind string

// Refresh kinds.
const (
	RefreshProfile  RefreshKind = "profile"
	RefreshWorkload RefreshKind = "workload"
)

// ValidRefreshKind reports whether k is a known refresh kind.
func ValidRefreshKind(k RefreshKind) bool {
	return k == RefreshProfile || k == RefreshWorkload
}

// RefreshTask is the payload flowing through the refresh queue.
type RefreshTask struct {
	EmployeeID uuid.UUID
	Kind       RefreshKind
}

// Key returns the dedupe key for an in-flight refresh task.
func (t RefreshTask) Key() string {
	return t.EmployeeID.String() + ":" + string(t.Kind)
}
