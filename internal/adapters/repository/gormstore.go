package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/types"
	"github.com/okian/roster/pkg/logger"
	"github.com/okian/roster/pkg/metrics"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultLogLimit = 100

// GormStore implements Store on top of a Postgres database via gorm.
type GormStore struct {
	db     *gorm.DB
	logger logger.Logger
}

var _ Store = (*GormStore)(nil)

// NewGormStore opens a Postgres connection and optionally migrates the schema.
func NewGormStore(dsn string, opts ...Option) (*GormStore, error) {
	cfg := newOptions(opts...)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &GormStore{
		db:     db,
		logger: cfg.logger,
	}

	if cfg.autoMigrate {
		if err := db.AutoMigrate(
			&model.Employee{},
			&model.ProjectAssignment{},
			&model.StaffingRequest{},
			&model.CapabilityProfile{},
			&model.TagEvaluation{},
			&model.ProjectPerformanceRecord{},
			&model.MatchingLogEntry{},
		); err != nil {
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	return s, nil
}

// NewGormStoreFromDB wraps an existing gorm handle. Used by tests running
// against sqlite or a transaction-scoped connection.
func NewGormStoreFromDB(db *gorm.DB, opts ...Option) *GormStore {
	cfg := newOptions(opts...)
	return &GormStore{db: db, logger: cfg.logger}
}

// observe records per-operation latency and error metrics. Sentinel
// outcomes are expected conditions, not store failures.
func observe(op string, start time.Time, err *error) {
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	if e := *err; e != nil && !errors.Is(e, ErrNotFound) &&
		!errors.Is(e, ErrRequestFilled) && !errors.Is(e, ErrAlreadyDecided) {
		metrics.RecordStoreError(op)
	}
}

// GetStaffingRequest implements RequestStore.
func (s *GormStore) GetStaffingRequest(ctx context.Context, id uuid.UUID) (req *model.StaffingRequest, err error) {
	defer observe("get_staffing_request", time.Now(), &err)

	var row model.StaffingRequest
	if err = s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query staffing request: %w", err)
	}
	return &row, nil
}

// SetRequestStatus implements RequestStore.
func (s *GormStore) SetRequestStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) (err error) {
	defer observe("set_request_status", time.Now(), &err)

	res := s.db.WithContext(ctx).
		Model(&model.StaffingRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		err = fmt.Errorf("update request status: %w", res.Error)
		return err
	}
	if res.RowsAffected == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// IncrementFilled implements RequestStore. The guard in the WHERE clause
// keeps FilledCount from ever exceeding Headcount under concurrent accepts.
func (s *GormStore) IncrementFilled(ctx context.Context, id uuid.UUID) (req *model.StaffingRequest, err error) {
	defer observe("increment_filled", time.Now(), &err)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.StaffingRequest{}).
			Where("id = ? AND filled_count < headcount", id).
			Update("filled_count", gorm.Expr("filled_count + 1"))
		if res.Error != nil {
			return fmt.Errorf("increment filled count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var probe model.StaffingRequest
			if probeErr := tx.First(&probe, "id = ?", id).Error; probeErr != nil {
				if errors.Is(probeErr, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return fmt.Errorf("probe staffing request: %w", probeErr)
			}
			return ErrRequestFilled
		}

		var row model.StaffingRequest
		if loadErr := tx.First(&row, "id = ?", id).Error; loadErr != nil {
			return fmt.Errorf("reload staffing request: %w", loadErr)
		}
		if row.FilledCount >= row.Headcount && row.Status != model.StatusFilled {
			row.Status = model.StatusFilled
			if upErr := tx.Model(&model.StaffingRequest{}).
				Where("id = ?", id).
				Update("status", model.StatusFilled).Error; upErr != nil {
				return fmt.Errorf("mark request filled: %w", upErr)
			}
		}
		req = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListActiveEmployees implements CandidateStore.
func (s *GormStore) ListActiveEmployees(ctx context.Context) (employees []model.Employee, err error) {
	defer observe("list_active_employees", time.Now(), &err)

	if err = s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name asc").
		Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("query active employees: %w", err)
	}
	return employees, nil
}

// GetProfiles implements CandidateStore.
func (s *GormStore) GetProfiles(ctx context.Context, employeeIDs []uuid.UUID) (profiles map[uuid.UUID]*model.CapabilityProfile, err error) {
	defer observe("get_profiles", time.Now(), &err)

	profiles = make(map[uuid.UUID]*model.CapabilityProfile, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return profiles, nil
	}

	var rows []model.CapabilityProfile
	if err = s.db.WithContext(ctx).
		Where("employee_id IN ?", employeeIDs).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query capability profiles: %w", err)
	}
	for i := range rows {
		profiles[rows[i].EmployeeID] = &rows[i]
	}
	return profiles, nil
}

// ListValidEvaluations implements CandidateStore.
func (s *GormStore) ListValidEvaluations(ctx context.Context, employeeID uuid.UUID) (evals []model.TagEvaluation, err error) {
	defer observe("list_valid_evaluations", time.Now(), &err)

	if err = s.db.WithContext(ctx).
		Where("employee_id = ? AND valid = ?", employeeID, true).
		Order("evaluate_date asc").
		Find(&evals).Error; err != nil {
		return nil, fmt.Errorf("query tag evaluations: %w", err)
	}
	return evals, nil
}

// ListPerformanceRecords implements CandidateStore.
func (s *GormStore) ListPerformanceRecords(ctx context.Context, employeeID uuid.UUID) (records []model.ProjectPerformanceRecord, err error) {
	defer observe("list_performance_records", time.Now(), &err)

	if err = s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query performance records: %w", err)
	}
	return records, nil
}

// ListActiveAssignments implements CandidateStore.
func (s *GormStore) ListActiveAssignments(ctx context.Context, employeeID uuid.UUID) (assignments []model.ProjectAssignment, err error) {
	defer observe("list_active_assignments", time.Now(), &err)

	if err = s.db.WithContext(ctx).
		Where("employee_id = ? AND (end_date IS NULL OR end_date > ?)", employeeID, time.Now()).
		Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("query project assignments: %w", err)
	}
	return assignments, nil
}

// SaveProfile implements ProfileStore with a full-row upsert.
func (s *GormStore) SaveProfile(ctx context.Context, profile *model.CapabilityProfile) (err error) {
	defer observe("save_profile", time.Now(), &err)

	if err = s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("save capability profile: %w", err)
	}
	return nil
}

// UpdateWorkload implements ProfileStore. The profile row is created with
// neutral capability fields when the employee has never had a full rebuild.
func (s *GormStore) UpdateWorkload(ctx context.Context, employeeID uuid.UUID, workloadPct, availableHours float64) (err error) {
	defer observe("update_workload", time.Now(), &err)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CapabilityProfile{}).
			Where("employee_id = ?", employeeID).
			Updates(map[string]any{
				"current_workload_pct": workloadPct,
				"available_hours":      availableHours,
				"profile_updated_at":   time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("update workload: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			row := model.CapabilityProfile{
				EmployeeID:         employeeID,
				CurrentWorkloadPct: workloadPct,
				AvailableHours:     availableHours,
				ProfileUpdatedAt:   time.Now(),
			}
			if createErr := tx.Create(&row).Error; createErr != nil {
				return fmt.Errorf("create workload profile: %w", createErr)
			}
		}
		return nil
	})
	return err
}

// CreateLogEntries implements LogStore. All entries of a run are written in
// one transaction so a partial run never appears in the audit trail.
func (s *GormStore) CreateLogEntries(ctx context.Context, entries []model.MatchingLogEntry) (err error) {
	defer observe("create_log_entries", time.Now(), &err)

	if len(entries) == 0 {
		return nil
	}
	if err = s.db.WithContext(ctx).Create(&entries).Error; err != nil {
		return fmt.Errorf("create matching log entries: %w", err)
	}
	return nil
}

// GetLogEntry implements LogStore.
func (s *GormStore) GetLogEntry(ctx context.Context, id uuid.UUID) (entry *model.MatchingLogEntry, err error) {
	defer observe("get_log_entry", time.Now(), &err)

	var row model.MatchingLogEntry
	if err = s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query log entry: %w", err)
	}
	return &row, nil
}

// MarkAccepted implements LogStore. The accepted IS NULL guard makes the
// decision single-shot even under concurrent requests.
func (s *GormStore) MarkAccepted(ctx context.Context, id uuid.UUID, acceptorID uuid.UUID, at time.Time) (err error) {
	defer observe("mark_accepted", time.Now(), &err)

	res := s.db.WithContext(ctx).
		Model(&model.MatchingLogEntry{}).
		Where("id = ? AND accepted IS NULL", id).
		Updates(map[string]any{
			"accepted":    true,
			"accepted_at": at,
			"acceptor_id": acceptorID,
		})
	if res.Error != nil {
		err = fmt.Errorf("mark log entry accepted: %w", res.Error)
		return err
	}
	if res.RowsAffected == 0 {
		err = s.decisionConflict(ctx, id)
		return err
	}
	return nil
}

// MarkRejected implements LogStore.
func (s *GormStore) MarkRejected(ctx context.Context, id uuid.UUID, reason string, at time.Time) (err error) {
	defer observe("mark_rejected", time.Now(), &err)

	res := s.db.WithContext(ctx).
		Model(&model.MatchingLogEntry{}).
		Where("id = ? AND accepted IS NULL", id).
		Updates(map[string]any{
			"accepted":      false,
			"accepted_at":   at,
			"reject_reason": reason,
		})
	if res.Error != nil {
		err = fmt.Errorf("mark log entry rejected: %w", res.Error)
		return err
	}
	if res.RowsAffected == 0 {
		err = s.decisionConflict(ctx, id)
		return err
	}
	return nil
}

// decisionConflict distinguishes a missing entry from one already decided.
func (s *GormStore) decisionConflict(ctx context.Context, id uuid.UUID) error {
	var probe model.MatchingLogEntry
	if err := s.db.WithContext(ctx).First(&probe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("probe log entry: %w", err)
	}
	return ErrAlreadyDecided
}

// ListLogs implements LogStore.
func (s *GormStore) ListLogs(ctx context.Context, filter types.LogFilter) (entries []model.MatchingLogEntry, err error) {
	defer observe("list_logs", time.Now(), &err)

	q := s.db.WithContext(ctx).Model(&model.MatchingLogEntry{})
	if filter.StaffingRequestID != uuid.Nil {
		q = q.Where("staffing_request_id = ?", filter.StaffingRequestID)
	}
	if filter.EmployeeID != uuid.Nil {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.ProjectID != uuid.Nil {
		q = q.Where("staffing_request_id IN (?)",
			s.db.Model(&model.StaffingRequest{}).
				Select("id").
				Where("project_id = ?", filter.ProjectID))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}

	if err = q.Order("matched_at desc, rank asc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("query matching logs: %w", err)
	}
	return entries, nil
}
