package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/adapters/repository"
	service "github.com/okian/roster/internal/app"
	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/types"
	"github.com/okian/roster/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeStore is an in-memory repository.Store for service tests.
type fakeStore struct {
	mu          sync.Mutex
	requests    map[uuid.UUID]*model.StaffingRequest
	employees   []model.Employee
	profiles    map[uuid.UUID]*model.CapabilityProfile
	evaluations map[uuid.UUID][]model.TagEvaluation
	performance map[uuid.UUID][]model.ProjectPerformanceRecord
	assignments map[uuid.UUID][]model.ProjectAssignment
	logs        map[uuid.UUID]*model.MatchingLogEntry

	// refreshGate, when set before the service starts, blocks refresh reads
	// so tests can observe in-flight dedupe state deterministically.
	refreshGate chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests:    map[uuid.UUID]*model.StaffingRequest{},
		profiles:    map[uuid.UUID]*model.CapabilityProfile{},
		evaluations: map[uuid.UUID][]model.TagEvaluation{},
		performance: map[uuid.UUID][]model.ProjectPerformanceRecord{},
		assignments: map[uuid.UUID][]model.ProjectAssignment{},
		logs:        map[uuid.UUID]*model.MatchingLogEntry{},
	}
}

func (f *fakeStore) GetStaffingRequest(_ context.Context, id uuid.UUID) (*model.StaffingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeStore) SetRequestStatus(_ context.Context, id uuid.UUID, status model.RequestStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	req.Status = status
	return nil
}

func (f *fakeStore) IncrementFilled(_ context.Context, id uuid.UUID) (*model.StaffingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.FilledCount >= req.Headcount {
		return nil, repository.ErrRequestFilled
	}
	req.FilledCount++
	if req.FilledCount >= req.Headcount {
		req.Status = model.StatusFilled
	}
	cp := *req
	return &cp, nil
}

func (f *fakeStore) ListActiveEmployees(_ context.Context) ([]model.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Employee
	for _, e := range f.employees {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProfiles(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.CapabilityProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uuid.UUID]*model.CapabilityProfile{}
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *fakeStore) ListValidEvaluations(_ context.Context, id uuid.UUID) ([]model.TagEvaluation, error) {
	if f.refreshGate != nil {
		<-f.refreshGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TagEvaluation
	for _, ev := range f.evaluations[id] {
		if ev.Valid {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPerformanceRecords(_ context.Context, id uuid.UUID) ([]model.ProjectPerformanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.performance[id], nil
}

func (f *fakeStore) ListActiveAssignments(_ context.Context, id uuid.UUID) ([]model.ProjectAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ProjectAssignment
	for _, a := range f.assignments[id] {
		if a.EndDate == nil || a.EndDate.After(time.Now()) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveProfile(_ context.Context, p *model.CapabilityProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.profiles[p.EmployeeID] = &cp
	return nil
}

func (f *fakeStore) UpdateWorkload(_ context.Context, id uuid.UUID, workloadPct, availableHours float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		p = &model.CapabilityProfile{EmployeeID: id}
		f.profiles[id] = p
	}
	p.CurrentWorkloadPct = workloadPct
	p.AvailableHours = availableHours
	p.ProfileUpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) CreateLogEntries(_ context.Context, entries []model.MatchingLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range entries {
		cp := entries[i]
		f.logs[cp.ID] = &cp
	}
	return nil
}

func (f *fakeStore) GetLogEntry(_ context.Context, id uuid.UUID) (*model.MatchingLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.logs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) MarkAccepted(_ context.Context, id uuid.UUID, acceptorID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.logs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if e.Accepted != nil {
		return repository.ErrAlreadyDecided
	}
	accepted := true
	e.Accepted = &accepted
	e.AcceptedAt = &at
	e.AcceptorID = &acceptorID
	return nil
}

func (f *fakeStore) MarkRejected(_ context.Context, id uuid.UUID, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.logs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if e.Accepted != nil {
		return repository.ErrAlreadyDecided
	}
	rejected := false
	e.Accepted = &rejected
	e.AcceptedAt = &at
	e.RejectReason = reason
	return nil
}

func (f *fakeStore) ListLogs(_ context.Context, filter types.LogFilter) ([]model.MatchingLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MatchingLogEntry
	for _, e := range f.logs {
		if filter.StaffingRequestID != uuid.Nil && e.StaffingRequestID != filter.StaffingRequestID {
			continue
		}
		if filter.EmployeeID != uuid.Nil && e.EmployeeID != filter.EmployeeID {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeStore) requestStatus(id uuid.UUID) model.RequestStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[id].Status
}

func (f *fakeStore) logCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

// seedScenario builds a P2 request for half an FTE and two candidates: one
// strong and available, one weak and almost fully booked.
func seedScenario(store *fakeStore) (requestID, strongID, weakID uuid.UUID) {
	requestID = uuid.New()
	strongID = uuid.New()
	weakID = uuid.New()
	skillTag := uuid.New()

	store.requests[requestID] = &model.StaffingRequest{
		ID:            requestID,
		ProjectID:     uuid.New(),
		RoleCode:      "BACKEND_DEV",
		Headcount:     1,
		AllocationPct: 50,
		Priority:      model.PriorityP2,
		RequiredSkills: []model.Requirement{
			{TagID: skillTag, MinScore: 3, TagName: "Go"},
		},
		Status: model.StatusOpen,
	}

	store.employees = []model.Employee{
		{ID: strongID, Name: "Strong", Active: true},
		{ID: weakID, Name: "Weak", Active: true},
		{ID: uuid.New(), Name: "Inactive", Active: false},
	}

	store.profiles[strongID] = &model.CapabilityProfile{
		EmployeeID: strongID,
		SkillTags: []model.ProfileTag{
			{TagID: skillTag, TagName: "Go", Score: 5, Weight: 1},
		},
		AttitudeScore:      90,
		CurrentWorkloadPct: 0,
	}
	score := 90.0
	store.performance[strongID] = []model.ProjectPerformanceRecord{
		{
			ID:                 uuid.New(),
			EmployeeID:         strongID,
			Contribution:       model.ContributionNormal,
			PerformanceScore:   &score,
			QualityScore:       &score,
			CollaborationScore: &score,
		},
	}

	// Above the hard filter cutoff of 75 for a 50% allocation.
	store.profiles[weakID] = &model.CapabilityProfile{
		EmployeeID:         weakID,
		AttitudeScore:      60,
		CurrentWorkloadPct: 80,
	}

	return requestID, strongID, weakID
}

func newStartedService(t *testing.T, store *fakeStore, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(append([]service.Option{
		service.WithStore(store),
		service.WithWorkerCount(1),
	}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestMatch(t *testing.T) {
	Convey("Given a request and a candidate pool", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		requestID, strongID, weakID := seedScenario(store)
		svc := newStartedService(t, store)

		Convey("When a matching run executes", func() {
			result, err := svc.Match(ctx, requestID, service.MatchParams{})

			Convey("Then the overloaded candidate is filtered and the rest are ranked", func() {
				So(err, ShouldBeNil)
				So(result.Candidates, ShouldHaveLength, 1)
				So(result.Candidates[0].EmployeeID, ShouldEqual, strongID)
				So(result.Candidates[0].Rank, ShouldEqual, 1)
				// 80*0.30 + 60*0.15 + 90*0.20 + 90*0.15 + 100*0.15 + 50*0.05
				So(result.Candidates[0].TotalScore, ShouldEqual, 82)
				So(result.Candidates[0].Tier, ShouldEqual, model.TierRecommended)
				So(result.PriorityThreshold, ShouldEqual, 75)
				So(result.QualifiedCount, ShouldEqual, 1)
			})

			Convey("Then a log entry is persisted and the request moves to MATCHING", func() {
				So(err, ShouldBeNil)
				So(store.logCount(), ShouldEqual, 1)
				entry, getErr := store.GetLogEntry(ctx, result.Candidates[0].LogEntryID)
				So(getErr, ShouldBeNil)
				So(entry.RunID, ShouldEqual, result.RunID)
				So(entry.TotalScore, ShouldEqual, 82)
				So(entry.Decided(), ShouldBeFalse)
				So(store.requestStatus(requestID), ShouldEqual, model.StatusMatching)
			})
		})

		Convey("When overloaded candidates are included", func() {
			result, err := svc.Match(ctx, requestID, service.MatchParams{IncludeOverloaded: true})

			Convey("Then both candidates are scored and the weaker one reports the missing skill", func() {
				So(err, ShouldBeNil)
				So(result.Candidates, ShouldHaveLength, 2)
				So(result.Candidates[0].EmployeeID, ShouldEqual, strongID)
				So(result.Candidates[1].EmployeeID, ShouldEqual, weakID)
				So(result.Candidates[1].Rank, ShouldEqual, 2)
				So(result.Candidates[1].MissingSkills, ShouldContain, "Go")
			})
		})

		Convey("When the run is capped via TopN", func() {
			result, err := svc.Match(ctx, requestID, service.MatchParams{TopN: 1, IncludeOverloaded: true})

			Convey("Then only the best candidate is returned", func() {
				So(err, ShouldBeNil)
				So(result.Candidates, ShouldHaveLength, 1)
				So(result.Candidates[0].EmployeeID, ShouldEqual, strongID)
			})
		})

		Convey("When the requested TopN exceeds the configured maximum", func() {
			capped := newStartedService(t, store, service.WithMaxTopN(1))
			result, err := capped.Match(ctx, requestID, service.MatchParams{TopN: 10, IncludeOverloaded: true})

			Convey("Then the cap wins", func() {
				So(err, ShouldBeNil)
				So(result.Candidates, ShouldHaveLength, 1)
			})
		})

		Convey("When the request does not exist", func() {
			_, err := svc.Match(ctx, uuid.New(), service.MatchParams{})

			Convey("Then a not-found error is returned", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}

func TestDecisions(t *testing.T) {
	Convey("Given a completed matching run", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		requestID, _, _ := seedScenario(store)
		svc := newStartedService(t, store)

		result, err := svc.Match(ctx, requestID, service.MatchParams{IncludeOverloaded: true})
		So(err, ShouldBeNil)
		So(result.Candidates, ShouldHaveLength, 2)
		first := result.Candidates[0].LogEntryID
		second := result.Candidates[1].LogEntryID
		acceptor := uuid.New()

		Convey("When the top candidate is accepted", func() {
			req, acceptErr := svc.Accept(ctx, first, acceptor)

			Convey("Then the slot is claimed and the request fills", func() {
				So(acceptErr, ShouldBeNil)
				So(req.FilledCount, ShouldEqual, 1)
				So(req.Status, ShouldEqual, model.StatusFilled)

				entry, getErr := store.GetLogEntry(ctx, first)
				So(getErr, ShouldBeNil)
				So(entry.Decided(), ShouldBeTrue)
				So(*entry.Accepted, ShouldBeTrue)
				So(*entry.AcceptorID, ShouldEqual, acceptor)
			})

			Convey("Then accepting the runner-up fails on the filled request", func() {
				So(acceptErr, ShouldBeNil)
				_, conflictErr := svc.Accept(ctx, second, acceptor)
				So(conflictErr, ShouldEqual, repository.ErrRequestFilled)
			})

			Convey("Then a new matching run on the filled request is refused", func() {
				So(acceptErr, ShouldBeNil)
				_, matchErr := svc.Match(ctx, requestID, service.MatchParams{})
				So(matchErr, ShouldEqual, repository.ErrRequestFilled)
			})

			Convey("Then a second decision on the same entry is refused", func() {
				So(acceptErr, ShouldBeNil)
				_, againErr := svc.Accept(ctx, first, acceptor)
				So(againErr, ShouldEqual, repository.ErrAlreadyDecided)
				So(svc.Reject(ctx, first, "changed mind"), ShouldEqual, repository.ErrAlreadyDecided)
			})
		})

		Convey("When a candidate is rejected", func() {
			rejectErr := svc.Reject(ctx, second, "insufficient domain depth")

			Convey("Then the entry records the reason and the request is untouched", func() {
				So(rejectErr, ShouldBeNil)
				entry, getErr := store.GetLogEntry(ctx, second)
				So(getErr, ShouldBeNil)
				So(entry.Decided(), ShouldBeTrue)
				So(*entry.Accepted, ShouldBeFalse)
				So(entry.RejectReason, ShouldEqual, "insufficient domain depth")
				So(store.requestStatus(requestID), ShouldEqual, model.StatusMatching)
			})
		})

		Convey("When a decision targets an unknown entry", func() {
			_, acceptErr := svc.Accept(ctx, uuid.New(), acceptor)
			rejectErr := svc.Reject(ctx, uuid.New(), "whatever")

			Convey("Then both return not found", func() {
				So(acceptErr, ShouldEqual, repository.ErrNotFound)
				So(rejectErr, ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}

func TestEnqueueRefresh(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		store.refreshGate = make(chan struct{})
		svc := newStartedService(t, store, service.WithQueueSize(4))
		t.Cleanup(func() { close(store.refreshGate) })
		employeeID := uuid.New()

		Convey("When the same refresh is submitted twice", func() {
			first := svc.EnqueueRefresh(ctx, employeeID, model.RefreshProfile)
			second := svc.EnqueueRefresh(ctx, employeeID, model.RefreshProfile)

			Convey("Then the duplicate is refused while the first is in flight", func() {
				So(first, ShouldBeNil)
				So(second, ShouldEqual, service.ErrRefreshInFlight)
			})
		})

		Convey("When the kind is unknown", func() {
			err := svc.EnqueueRefresh(ctx, employeeID, "rebuild")

			Convey("Then it is rejected up front", func() {
				So(err, ShouldWrap, service.ErrInvalidKind)
			})
		})
	})
}

func TestRefreshProfile(t *testing.T) {
	Convey("Given an employee with evaluations, history and assignments", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		svc := newStartedService(t, store)

		employeeID := uuid.New()
		goTag := uuid.New()
		now := time.Now()
		store.evaluations[employeeID] = []model.TagEvaluation{
			{ID: uuid.New(), EmployeeID: employeeID, TagID: goTag, TagType: model.TagSkill, TagName: "Go", Score: 3, Valid: true, EvaluateDate: now.Add(-48 * time.Hour)},
			// Later assertion for the same tag supersedes the earlier one.
			{ID: uuid.New(), EmployeeID: employeeID, TagID: goTag, TagType: model.TagSkill, TagName: "Go", Score: 5, Valid: true, EvaluateDate: now.Add(-time.Hour)},
			{ID: uuid.New(), EmployeeID: employeeID, TagID: uuid.New(), TagType: model.TagAttitude, TagName: "Ownership", Score: 4, Valid: true, EvaluateDate: now},
			{ID: uuid.New(), EmployeeID: employeeID, TagID: uuid.New(), TagType: model.TagDomain, TagName: "Payments", Score: 2, Valid: false, EvaluateDate: now},
		}
		perfScore := 88.0
		store.performance[employeeID] = []model.ProjectPerformanceRecord{
			{ID: uuid.New(), EmployeeID: employeeID, Contribution: model.ContributionCore, PerformanceScore: &perfScore},
		}
		store.assignments[employeeID] = []model.ProjectAssignment{
			{ID: uuid.New(), EmployeeID: employeeID, ProjectID: uuid.New(), AllocationPct: 40},
			{ID: uuid.New(), EmployeeID: employeeID, ProjectID: uuid.New(), AllocationPct: 35},
		}

		Convey("When the profile is rebuilt", func() {
			err := svc.RefreshProfile(ctx, employeeID)

			Convey("Then the snapshot reflects the latest valid evaluations", func() {
				So(err, ShouldBeNil)
				p := store.profiles[employeeID]
				So(p, ShouldNotBeNil)
				So(p.SkillTags, ShouldHaveLength, 1)
				So(p.SkillTags[0].Score, ShouldEqual, 5)
				So(p.AttitudeTags, ShouldHaveLength, 1)
				So(p.DomainTags, ShouldBeEmpty) // invalid row excluded
				So(p.AttitudeScore, ShouldEqual, 80) // 4 * 20
				So(p.TotalProjects, ShouldEqual, 1)
				So(p.AvgPerformanceScore, ShouldEqual, 88)
				So(p.CurrentWorkloadPct, ShouldEqual, 75)
				So(p.AvailableHours, ShouldEqual, 40) // 160 * 25%
				So(p.ProfileUpdatedAt.IsZero(), ShouldBeFalse)
			})
		})
	})
}

func TestRefreshWorkload(t *testing.T) {
	Convey("Given an employee with an existing profile", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		svc := newStartedService(t, store)

		employeeID := uuid.New()
		store.profiles[employeeID] = &model.CapabilityProfile{
			EmployeeID:    employeeID,
			AttitudeScore: 70,
		}
		ended := time.Now().Add(-time.Hour)
		store.assignments[employeeID] = []model.ProjectAssignment{
			{ID: uuid.New(), EmployeeID: employeeID, AllocationPct: 60},
			{ID: uuid.New(), EmployeeID: employeeID, AllocationPct: 70},
			{ID: uuid.New(), EmployeeID: employeeID, AllocationPct: 50, EndDate: &ended},
		}

		Convey("When the workload is refreshed", func() {
			err := svc.RefreshWorkload(ctx, employeeID)

			Convey("Then the sum is capped at 100 and capability fields survive", func() {
				So(err, ShouldBeNil)
				p := store.profiles[employeeID]
				So(p.CurrentWorkloadPct, ShouldEqual, 100)
				So(p.AvailableHours, ShouldEqual, 0)
				So(p.AttitudeScore, ShouldEqual, 70)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		store := newFakeStore()
		svc := newStartedService(t, store, service.WithWorkerCount(2), service.WithQueueSize(8))

		Convey("When stats are queried", func() {
			stats := svc.GetStats()

			Convey("Then the runtime configuration is reported", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueSize"], ShouldEqual, 8)
				So(stats, ShouldContainKey, "queueLength")
			})
		})
	})
}
