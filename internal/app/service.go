// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	taskqueue "github.com/okian/roster/internal/adapters/mq/queue"
	workerpool "github.com/okian/roster/internal/adapters/mq/worker"
	"github.com/okian/roster/internal/adapters/repository"
	"github.com/okian/roster/internal/domain/dedupe"
	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/rank"
	"github.com/okian/roster/internal/domain/scoring"
	"github.com/okian/roster/internal/domain/types"
	"github.com/okian/roster/pkg/logger"
	"github.com/okian/roster/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize     = 10000
	defaultDedupeSize    = 50000
	defaultTopN          = 10
	defaultMonthlyHours  = 160.0
	maxWorkloadPct       = 100.0
	overloadFilterFactor = 0.5
	profileTagWeight     = 1.0
	evaluationScoreToPct = 20.0
)

// MatchParams tunes one matching run.
type MatchParams = types.MatchParams

// Service implements the API dependencies for the matching engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	scorer     *scoring.Engine
	classifier *rank.Classifier
	deduper    dedupe.Deduper
	taskQueue  taskqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	topN          int
	maxTopN       int
	monthlyHours  float64
	weights       *scoring.Weights
	thresholds    rank.Thresholds
	solutionRoles []string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. Required before Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithWorkerCount sets the number of refresh worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the refresh queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the in-flight deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDefaultTopN sets the candidate count returned when a match request
// does not specify one.
func WithDefaultTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithMaxTopN caps the number of candidates a single run may request.
func WithMaxTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTopN = n
		}
	}
}

// WithMonthlyCapacityHours sets the full-time monthly hour base used to
// derive available hours from workload percent.
func WithMonthlyCapacityHours(hours float64) Option {
	return func(s *Service) {
		if hours > 0 {
			s.monthlyHours = hours
		}
	}
}

// WithWeights overrides the dimension weight table.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = &w
	}
}

// WithThresholds overrides the priority threshold table.
func WithThresholds(t rank.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = t
	}
}

// WithSolutionRoles sets the role codes scored with the solution formula.
func WithSolutionRoles(roles []string) Option {
	return func(s *Service) {
		s.solutionRoles = roles
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    defaultQueueSize,
		dedupeSize:   defaultDedupeSize,
		topN:         defaultTopN,
		monthlyHours: defaultMonthlyHours,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return fmt.Errorf("start service: store is required")
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting matching service...")

	scoringOpts := []scoring.Option{
		scoring.WithSolutionRoles(s.solutionRoles),
	}
	if s.weights != nil {
		scoringOpts = append(scoringOpts, scoring.WithWeights(*s.weights))
	}
	s.scorer = scoring.NewEngine(scoringOpts...)

	rankOpts := []rank.Option{}
	if len(s.thresholds) > 0 {
		rankOpts = append(rankOpts, rank.WithThresholds(s.thresholds))
	}
	s.classifier = rank.NewClassifier(rankOpts...)

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.taskQueue = taskqueue.NewInMemoryQueue(
		taskqueue.WithCapacity(s.queueSize),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.taskQueue, s, s.deduper)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping matching service...")

	if q, ok := s.taskQueue.(*taskqueue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	s.started = false
	s.logger.Info(ctx, "matching service stopped")
}

// Match runs one matching pass for a staffing request: pool the active
// employees, score each against the request, band them into tiers, rank
// them and persist one immutable log entry per candidate under a fresh
// run id.
func (s *Service) Match(ctx context.Context, requestID uuid.UUID, params MatchParams) (*types.MatchResult, error) {
	start := time.Now()

	req, err := s.store.GetStaffingRequest(ctx, requestID)
	if err != nil {
		metrics.RecordMatchError()
		return nil, err
	}
	if req.Status == model.StatusFilled {
		metrics.RecordMatchError()
		return nil, repository.ErrRequestFilled
	}

	pool, profiles, err := s.candidatePool(ctx, req, params.IncludeOverloaded)
	if err != nil {
		metrics.RecordMatchError()
		return nil, err
	}

	threshold := s.classifier.Threshold(req.Priority)
	candidates := make([]types.Candidate, 0, len(pool))
	for _, emp := range pool {
		evals, perf, loadErr := s.candidateHistory(ctx, emp.ID, profiles[emp.ID])
		if loadErr != nil {
			metrics.RecordMatchError()
			return nil, loadErr
		}

		res := s.scorer.Evaluate(scoring.Input{
			Request:     req,
			Profile:     profiles[emp.ID],
			Evaluations: evals,
			Performance: perf,
		})

		candidates = append(candidates, types.Candidate{
			EmployeeID:    emp.ID,
			EmployeeName:  emp.Name,
			TotalScore:    res.Total,
			Tier:          s.classifier.Tier(res.Total, threshold),
			Dimensions:    res.Dimensions,
			MissingSkills: res.Detail.MissingSkills,
		})
	}
	metrics.RecordCandidatesScored(len(candidates))

	qualified := rank.QualifiedCount(candidates, threshold)
	if len(candidates) > 0 {
		metrics.RecordQualifiedRatio(float64(qualified) / float64(len(candidates)))
	}

	topN := params.TopN
	if topN <= 0 {
		topN = s.topN
	}
	if s.maxTopN > 0 && topN > s.maxTopN {
		topN = s.maxTopN
	}
	candidates = rank.Order(candidates, topN)

	runID := uuid.New()
	matchedAt := time.Now().UTC()
	entries := make([]model.MatchingLogEntry, len(candidates))
	for i := range candidates {
		entryID := uuid.New()
		candidates[i].LogEntryID = entryID
		entries[i] = model.MatchingLogEntry{
			ID:                entryID,
			RunID:             runID,
			StaffingRequestID: req.ID,
			EmployeeID:        candidates[i].EmployeeID,
			TotalScore:        candidates[i].TotalScore,
			Dimensions:        candidates[i].Dimensions,
			Rank:              candidates[i].Rank,
			Tier:              candidates[i].Tier,
			MatchedAt:         matchedAt,
		}
	}
	if err := s.store.CreateLogEntries(ctx, entries); err != nil {
		metrics.RecordMatchError()
		return nil, err
	}

	if req.Status == model.StatusOpen {
		if err := s.store.SetRequestStatus(ctx, req.ID, model.StatusMatching); err != nil {
			metrics.RecordMatchError()
			return nil, err
		}
	}

	metrics.RecordMatchRun()
	metrics.RecordMatchDuration(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "matching run completed",
		logger.String("requestID", req.ID.String()),
		logger.String("runID", runID.String()),
		logger.Int("candidates", len(candidates)),
		logger.Int("qualified", qualified),
	)

	return &types.MatchResult{
		RunID:             runID,
		StaffingRequestID: req.ID,
		PriorityThreshold: threshold,
		QualifiedCount:    qualified,
		MatchedAt:         matchedAt,
		Candidates:        candidates,
	}, nil
}

// candidatePool lists active employees and applies the hard workload filter:
// an employee whose remaining capacity cannot cover even half the requested
// allocation is dropped before scoring. Employees without a profile are
// always kept.
func (s *Service) candidatePool(ctx context.Context, req *model.StaffingRequest, includeOverloaded bool) ([]model.Employee, map[uuid.UUID]*model.CapabilityProfile, error) {
	employees, err := s.store.ListActiveEmployees(ctx)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uuid.UUID, len(employees))
	for i := range employees {
		ids[i] = employees[i].ID
	}
	profiles, err := s.store.GetProfiles(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	if includeOverloaded {
		return employees, profiles, nil
	}

	cutoff := maxWorkloadPct - req.AllocationPct*overloadFilterFactor
	pool := employees[:0]
	for _, emp := range employees {
		if p := profiles[emp.ID]; p != nil && p.CurrentWorkloadPct > cutoff {
			continue
		}
		pool = append(pool, emp)
	}
	return pool, profiles, nil
}

// candidateHistory loads the per-employee inputs the scorers need beyond the
// profile. Raw evaluations are only needed as the attitude fallback when no
// profile aggregate exists.
func (s *Service) candidateHistory(ctx context.Context, employeeID uuid.UUID, profile *model.CapabilityProfile) ([]model.TagEvaluation, []model.ProjectPerformanceRecord, error) {
	var evals []model.TagEvaluation
	if profile == nil || profile.AttitudeScore <= 0 {
		var err error
		evals, err = s.store.ListValidEvaluations(ctx, employeeID)
		if err != nil {
			return nil, nil, err
		}
	}

	perf, err := s.store.ListPerformanceRecords(ctx, employeeID)
	if err != nil {
		return nil, nil, err
	}
	return evals, perf, nil
}

// Accept records an accept decision on a log entry and claims one headcount
// slot on its staffing request. The slot claim is an atomic conditional
// increment, so concurrent accepts on the last slot resolve to exactly one
// winner; the loser gets repository.ErrRequestFilled.
func (s *Service) Accept(ctx context.Context, logEntryID, acceptorID uuid.UUID) (*model.StaffingRequest, error) {
	entry, err := s.store.GetLogEntry(ctx, logEntryID)
	if err != nil {
		return nil, err
	}
	if entry.Decided() {
		metrics.RecordDecisionConflict()
		return nil, repository.ErrAlreadyDecided
	}

	req, err := s.store.IncrementFilled(ctx, entry.StaffingRequestID)
	if err != nil {
		if err == repository.ErrRequestFilled {
			metrics.RecordDecisionConflict()
		}
		return nil, err
	}

	if err := s.store.MarkAccepted(ctx, logEntryID, acceptorID, time.Now().UTC()); err != nil {
		metrics.RecordDecisionConflict()
		return nil, err
	}

	metrics.RecordAccept()
	if req.Status == model.StatusFilled {
		metrics.RecordRequestFilled()
	}
	s.logger.Info(ctx, "candidate accepted",
		logger.String("logEntryID", logEntryID.String()),
		logger.String("requestID", req.ID.String()),
		logger.Int("filledCount", req.FilledCount),
		logger.String("status", string(req.Status)),
	)
	return req, nil
}

// Reject records a reject decision on a log entry. The staffing request is
// untouched; a rejected candidate never held a slot.
func (s *Service) Reject(ctx context.Context, logEntryID uuid.UUID, reason string) error {
	if err := s.store.MarkRejected(ctx, logEntryID, reason, time.Now().UTC()); err != nil {
		if err == repository.ErrAlreadyDecided {
			metrics.RecordDecisionConflict()
		}
		return err
	}

	metrics.RecordReject()
	s.logger.Info(ctx, "candidate rejected",
		logger.String("logEntryID", logEntryID.String()),
		logger.String("reason", reason),
	)
	return nil
}

// Logs returns historical matching log entries, newest run first.
func (s *Service) Logs(ctx context.Context, filter types.LogFilter) ([]model.MatchingLogEntry, error) {
	return s.store.ListLogs(ctx, filter)
}

// EnqueueRefresh submits an asynchronous snapshot rebuild for one employee.
// At most one rebuild per (employee, kind) is in flight at a time.
func (s *Service) EnqueueRefresh(ctx context.Context, employeeID uuid.UUID, kind model.RefreshKind) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	if !model.ValidRefreshKind(kind) {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	task := model.RefreshTask{EmployeeID: employeeID, Kind: kind}
	if s.deduper.SeenAndRecord(ctx, task.Key()) {
		metrics.RecordRefreshDuplicate()
		return ErrRefreshInFlight
	}

	if !s.taskQueue.Enqueue(ctx, task) {
		// Release the key so the caller can retry once pressure drops.
		s.deduper.Unrecord(ctx, task.Key())
		return ErrQueueSaturated
	}
	return nil
}

// RefreshProfile rebuilds an employee's capability profile wholesale from
// the valid evaluations, performance records and active assignments.
func (s *Service) RefreshProfile(ctx context.Context, employeeID uuid.UUID) error {
	evals, err := s.store.ListValidEvaluations(ctx, employeeID)
	if err != nil {
		return err
	}
	perf, err := s.store.ListPerformanceRecords(ctx, employeeID)
	if err != nil {
		return err
	}
	workloadPct, err := s.currentWorkload(ctx, employeeID)
	if err != nil {
		return err
	}

	profile := &model.CapabilityProfile{
		EmployeeID:         employeeID,
		CurrentWorkloadPct: workloadPct,
		AvailableHours:     s.availableHours(workloadPct),
		TotalProjects:      len(perf),
		QualityScore:       s.scorer.QualityScore(perf),
		ProfileUpdatedAt:   time.Now().UTC(),
	}

	// Evaluations arrive ordered by evaluate date ascending, so the latest
	// assertion per tag wins.
	latest := map[uuid.UUID]model.TagEvaluation{}
	for _, ev := range evals {
		latest[ev.TagID] = ev
	}
	var attitudeSum, attitudeN float64
	for _, ev := range latest {
		tag := model.ProfileTag{
			TagID:   ev.TagID,
			TagCode: ev.TagCode,
			TagName: ev.TagName,
			Score:   ev.Score,
			Weight:  profileTagWeight,
		}
		switch ev.TagType {
		case model.TagSkill:
			profile.SkillTags = append(profile.SkillTags, tag)
		case model.TagDomain:
			profile.DomainTags = append(profile.DomainTags, tag)
		case model.TagAttitude:
			profile.AttitudeTags = append(profile.AttitudeTags, tag)
			attitudeSum += float64(ev.Score)
			attitudeN++
		case model.TagCharacter:
			profile.CharacterTags = append(profile.CharacterTags, tag)
		case model.TagSpecial:
			profile.SpecialTags = append(profile.SpecialTags, tag)
		}
	}
	if attitudeN > 0 {
		profile.AttitudeScore = scoring.Round2(attitudeSum / attitudeN * evaluationScoreToPct)
	}

	var perfSum, perfN float64
	for i := range perf {
		if ps := perf[i].PerformanceScore; ps != nil {
			perfSum += *ps
			perfN++
		}
	}
	if perfN > 0 {
		profile.AvgPerformanceScore = scoring.Round2(perfSum / perfN)
	}

	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return err
	}
	s.logger.Debug(ctx, "profile rebuilt",
		logger.String("employeeID", employeeID.String()),
		logger.Int("tags", len(latest)),
	)
	return nil
}

// RefreshWorkload recomputes only the workload fields from the employee's
// active assignments, leaving the capability collections untouched.
func (s *Service) RefreshWorkload(ctx context.Context, employeeID uuid.UUID) error {
	workloadPct, err := s.currentWorkload(ctx, employeeID)
	if err != nil {
		return err
	}
	return s.store.UpdateWorkload(ctx, employeeID, workloadPct, s.availableHours(workloadPct))
}

// currentWorkload sums the employee's active assignment allocations,
// capped at 100.
func (s *Service) currentWorkload(ctx context.Context, employeeID uuid.UUID) (float64, error) {
	assignments, err := s.store.ListActiveAssignments(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range assignments {
		sum += assignments[i].AllocationPct
	}
	return math.Min(sum, maxWorkloadPct), nil
}

func (s *Service) availableHours(workloadPct float64) float64 {
	return scoring.Round2(s.monthlyHours * (maxWorkloadPct - workloadPct) / maxWorkloadPct)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"defaultTopN": s.topN,
	}

	if s.started {
		queueLen := s.taskQueue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["inFlightRefreshes"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
