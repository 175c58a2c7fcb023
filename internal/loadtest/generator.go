package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	archetypeDivisor   = 8
)

// Constants for employee archetype cases.
const (
	caseSeniorSpecialist = 0
	caseGeneralist       = 1
	caseOverloadedExpert = 2
	caseJunior           = 3
	caseAverage          = 4
	caseDomainExpert     = 5
	casePoorAttitude     = 6
	caseFreshHire        = 7
)

// archetype controls the score and workload distribution of one employee.
type archetype struct {
	skillMin, skillMax       int
	attitudeMin, attitudeMax int
	perfMin, perfRange       float64
	workloadPct              float64
	historyProjects          int
}

// tagRef is one entry of the fixed capability tag catalog.
type tagRef struct {
	id   uuid.UUID
	code string
	name string
	typ  model.TagType
}

// catalog is the fixed capability tag catalog shared by evaluations and
// request requirements. IDs are minted once per process.
type catalog struct {
	skills    []tagRef
	domains   []tagRef
	attitudes []tagRef
	specials  []tagRef
}

func newCatalog() *catalog {
	mk := func(typ model.TagType, codes ...string) []tagRef {
		refs := make([]tagRef, len(codes))
		for i, code := range codes {
			refs[i] = tagRef{id: uuid.New(), code: code, name: code, typ: typ}
		}
		return refs
	}
	return &catalog{
		skills:    mk(model.TagSkill, "Go", "Kubernetes", "PostgreSQL", "React", "Terraform", "Kafka", "Python", "gRPC"),
		domains:   mk(model.TagDomain, "Payments", "Logistics", "Healthcare", "Retail"),
		attitudes: mk(model.TagAttitude, "Ownership", "Collaboration", "Communication"),
		specials:  mk(model.TagSpecial, "English", "Mentoring"),
	}
}

// randomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomInt returns a random int in [0, n).
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// randomIntRange returns a random int in [lo, hi].
func randomIntRange(lo, hi int) int {
	return lo + randomInt(hi-lo+1)
}

// generateDataset builds employees, their evaluation history, and staffing
// requests with a varied archetype distribution.
func generateDataset(ctx context.Context, config *Config, stats *Stats) (*Dataset, error) {
	logger.Get().Info(ctx, "generating dataset",
		logger.Int("employees", config.NumEmployees),
		logger.Int("requests", config.NumRequests))

	cat := newCatalog()
	ds := &Dataset{}

	for i := 0; i < config.NumEmployees; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during dataset generation: %w", ctx.Err())
		default:
		}
		generateEmployee(i, cat, ds)
	}

	projectIDs := make([]uuid.UUID, config.NumRequests)
	for i := range projectIDs {
		projectIDs[i] = uuid.New()
	}
	for i := 0; i < config.NumRequests; i++ {
		ds.Requests = append(ds.Requests, generateRequest(i, projectIDs[i], cat))
	}

	stats.EmployeesGenerated = len(ds.Employees)
	stats.EvaluationsSeeded = len(ds.Evaluations)
	stats.RequestsGenerated = len(ds.Requests)
	logger.Get().Info(ctx, "generated dataset",
		logger.Int("employees", len(ds.Employees)),
		logger.Int("evaluations", len(ds.Evaluations)),
		logger.Int("performanceRecords", len(ds.Performance)),
		logger.Int("assignments", len(ds.Assignments)),
		logger.Int("requests", len(ds.Requests)))

	return ds, nil
}

// pickArchetype draws one of the eight employee archetypes.
func pickArchetype() archetype {
	switch randomInt(archetypeDivisor) {
	case caseSeniorSpecialist:
		return archetype{skillMin: 4, skillMax: 5, attitudeMin: 4, attitudeMax: 5, perfMin: 82, perfRange: 15, workloadPct: 30, historyProjects: 4}
	case caseGeneralist:
		return archetype{skillMin: 3, skillMax: 4, attitudeMin: 3, attitudeMax: 4, perfMin: 70, perfRange: 20, workloadPct: 50, historyProjects: 3}
	case caseOverloadedExpert:
		return archetype{skillMin: 4, skillMax: 5, attitudeMin: 4, attitudeMax: 5, perfMin: 85, perfRange: 12, workloadPct: 100, historyProjects: 5}
	case caseJunior:
		return archetype{skillMin: 1, skillMax: 3, attitudeMin: 3, attitudeMax: 5, perfMin: 55, perfRange: 25, workloadPct: 20, historyProjects: 1}
	case caseAverage:
		return archetype{skillMin: 2, skillMax: 4, attitudeMin: 2, attitudeMax: 4, perfMin: 60, perfRange: 25, workloadPct: 60, historyProjects: 2}
	case caseDomainExpert:
		return archetype{skillMin: 3, skillMax: 5, attitudeMin: 3, attitudeMax: 4, perfMin: 75, perfRange: 18, workloadPct: 75, historyProjects: 4}
	case casePoorAttitude:
		return archetype{skillMin: 3, skillMax: 5, attitudeMin: 1, attitudeMax: 2, perfMin: 50, perfRange: 30, workloadPct: 40, historyProjects: 3}
	case caseFreshHire:
		return archetype{skillMin: 2, skillMax: 4, attitudeMin: 3, attitudeMax: 4, perfMin: 0, perfRange: 0, workloadPct: 0, historyProjects: 0}
	default:
		return archetype{skillMin: 2, skillMax: 4, attitudeMin: 2, attitudeMax: 4, perfMin: 60, perfRange: 25, workloadPct: 60, historyProjects: 2}
	}
}

// generateEmployee appends one employee with evaluations, performance
// history, and active assignments matching a drawn archetype.
func generateEmployee(index int, cat *catalog, ds *Dataset) {
	arch := pickArchetype()
	emp := model.Employee{
		ID:     uuid.New(),
		Name:   fmt.Sprintf("Employee %04d", index),
		Active: true,
	}
	ds.Employees = append(ds.Employees, emp)

	now := time.Now().UTC()

	appendEval := func(tag tagRef, score int, age time.Duration, valid bool) {
		ds.Evaluations = append(ds.Evaluations, model.TagEvaluation{
			ID:           uuid.New(),
			EmployeeID:   emp.ID,
			TagID:        tag.id,
			TagType:      tag.typ,
			TagCode:      tag.code,
			TagName:      tag.name,
			Score:        score,
			Valid:        valid,
			EvaluatorID:  uuid.New(),
			EvaluateDate: now.Add(-age),
		})
	}

	// Skill evaluations. Occasionally emit a stale lower-scored duplicate
	// so the latest-evaluation-wins aggregation is exercised.
	skillCount := randomIntRange(3, 6)
	for _, idx := range pickIndices(len(cat.skills), skillCount) {
		tag := cat.skills[idx]
		score := randomIntRange(arch.skillMin, arch.skillMax)
		if randomFloat() < 0.2 && score > 1 {
			appendEval(tag, score-1, 400*24*time.Hour, true)
		}
		if randomFloat() < 0.1 {
			appendEval(tag, randomIntRange(1, 5), 30*24*time.Hour, false)
		}
		appendEval(tag, score, time.Duration(randomInt(90))*24*time.Hour, true)
	}

	for _, idx := range pickIndices(len(cat.domains), randomIntRange(1, 2)) {
		appendEval(cat.domains[idx], randomIntRange(arch.skillMin, arch.skillMax), time.Duration(randomInt(180))*24*time.Hour, true)
	}
	for _, idx := range pickIndices(len(cat.attitudes), randomIntRange(1, 2)) {
		appendEval(cat.attitudes[idx], randomIntRange(arch.attitudeMin, arch.attitudeMax), time.Duration(randomInt(180))*24*time.Hour, true)
	}
	if randomFloat() < 0.4 {
		appendEval(cat.specials[randomInt(len(cat.specials))], randomIntRange(2, 5), time.Duration(randomInt(180))*24*time.Hour, true)
	}

	// Performance history.
	contributions := []model.Contribution{model.ContributionCore, model.ContributionMajor, model.ContributionNormal, model.ContributionMinor}
	for p := 0; p < arch.historyProjects; p++ {
		perf := arch.perfMin + randomFloat()*arch.perfRange
		quality := arch.perfMin + randomFloat()*arch.perfRange
		collab := arch.perfMin + randomFloat()*arch.perfRange
		ds.Performance = append(ds.Performance, model.ProjectPerformanceRecord{
			ID:                 uuid.New(),
			EmployeeID:         emp.ID,
			ProjectID:          uuid.New(),
			Contribution:       contributions[randomInt(len(contributions))],
			PerformanceScore:   &perf,
			QualityScore:       &quality,
			CollaborationScore: &collab,
		})
	}

	// Active assignments adding up to the archetype workload.
	remaining := arch.workloadPct
	for remaining > 0 {
		alloc := remaining
		if remaining > 50 && randomFloat() < 0.5 {
			alloc = 50
		}
		ds.Assignments = append(ds.Assignments, model.ProjectAssignment{
			ID:            uuid.New(),
			EmployeeID:    emp.ID,
			ProjectID:     uuid.New(),
			AllocationPct: alloc,
			StartDate:     now.Add(-time.Duration(randomIntRange(30, 365)) * 24 * time.Hour),
		})
		remaining -= alloc
	}
}

// generateRequest builds one staffing request with requirements drawn from
// the tag catalog.
func generateRequest(index int, projectID uuid.UUID, cat *catalog) model.StaffingRequest {
	priorities := []model.Priority{model.PriorityP1, model.PriorityP2, model.PriorityP3, model.PriorityP4, model.PriorityP5}
	roles := []string{"BACKEND_DEV", "FRONTEND_DEV", "PLATFORM_ENG", "DATA_ENG", "SOLUTION_ARCHITECT"}

	req := model.StaffingRequest{
		ID:            uuid.New(),
		ProjectID:     projectID,
		RoleCode:      roles[randomInt(len(roles))],
		RoleName:      fmt.Sprintf("Load Test Role %03d", index),
		Headcount:     randomIntRange(1, 3),
		AllocationPct: float64(randomIntRange(1, 4)) * 25,
		Priority:      priorities[randomInt(len(priorities))],
		Status:        model.StatusOpen,
		CreatedAt:     time.Now().UTC(),
	}

	requirement := func(tag tagRef, minScore int) model.Requirement {
		return model.Requirement{TagID: tag.id, MinScore: minScore, TagName: tag.name}
	}

	for _, idx := range pickIndices(len(cat.skills), randomIntRange(1, 3)) {
		req.RequiredSkills = append(req.RequiredSkills, requirement(cat.skills[idx], randomIntRange(2, 4)))
	}
	for _, idx := range pickIndices(len(cat.skills), randomInt(3)) {
		req.PreferredSkills = append(req.PreferredSkills, requirement(cat.skills[idx], randomIntRange(2, 4)))
	}
	if randomFloat() < 0.6 {
		req.RequiredDomains = append(req.RequiredDomains, requirement(cat.domains[randomInt(len(cat.domains))], randomIntRange(2, 4)))
	}
	if randomFloat() < 0.4 {
		req.RequiredAttitudes = append(req.RequiredAttitudes, requirement(cat.attitudes[randomInt(len(cat.attitudes))], randomIntRange(3, 4)))
	}
	return req
}

// pickIndices returns n distinct indices in [0, size) in random order.
func pickIndices(size, n int) []int {
	if n > size {
		n = size
	}
	indices := make([]int, size)
	for i := range indices {
		indices[i] = i
	}
	for i := size - 1; i > 0; i-- {
		j := randomInt(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}
	return indices[:n]
}
