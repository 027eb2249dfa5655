package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type scheduleMetadataReader interface {
	FindByID(ctx context.Context, id int64) (*models.ScheduleMetadata, error)
}

type lectureGroupReader interface {
	ListBySchedule(ctx context.Context, scheduleID int64) ([]models.LectureGroup, error)
	FindByID(ctx context.Context, id int64) (*models.LectureGroup, error)
	DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID int64) (int64, error)
}

type lectureBlockStore interface {
	ListBySchedule(ctx context.Context, scheduleID int64) ([]models.LectureBlock, error)
	FindByID(ctx context.Context, id int64) (*models.LectureBlock, error)
	Create(ctx context.Context, exec sqlx.ExtContext, block *models.LectureBlock) error
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, blocks []models.LectureBlock) error
	Delete(ctx context.Context, id int64) error
	DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID int64) (int64, error)
}

type subjectCatalog interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Subject, error)
}

type facilityCatalog interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Facility, error)
}

type timeOffReader interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]models.TeacherTimeOff, error)
}

type schoolConfigReader interface {
	Get(ctx context.Context, ownerID int64) (*models.SchoolConfiguration, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type auditEnqueuer interface {
	Enqueue(ctx context.Context, req AuditRequest) error
}

// TimetableStores groups the persistence dependencies of TimetableService.
type TimetableStores struct {
	Schedules  scheduleMetadataReader
	Groups     lectureGroupReader
	Blocks     lectureBlockStore
	Subjects   subjectCatalog
	Facilities facilityCatalog
	TimeOffs   timeOffReader
	Configs    schoolConfigReader
	Tx         txProvider
	// Locks is shared with LectureGroupService; nil gets a private set.
	Locks *VersionLocks
}

// TimetableConfig tunes the solver and checker used by the service.
type TimetableConfig struct {
	DailyLoadThreshold int
	MaxSteps           int
	SpreadAcrossDays   bool
	DefaultDays        int
	DefaultPeriods     int
	ValidationTTL      time.Duration
}

// TimetableService runs the auto-scheduler, the placement checker and the
// full-schedule validator against persisted schedule versions.
type TimetableService struct {
	stores    TimetableStores
	cache     *CacheService
	audits    auditEnqueuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	checker   *timetable.Checker
	scheduler *timetable.Scheduler
	locks     *VersionLocks
	cfg       TimetableConfig
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	stores TimetableStores,
	cache *CacheService,
	audits auditEnqueuer,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 5
	}
	if cfg.DefaultPeriods <= 0 {
		cfg.DefaultPeriods = 7
	}
	if cfg.ValidationTTL <= 0 {
		cfg.ValidationTTL = 10 * time.Minute
	}
	locks := stores.Locks
	if locks == nil {
		locks = NewVersionLocks()
	}
	return &TimetableService{
		stores:    stores,
		cache:     cache,
		audits:    audits,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		checker:   timetable.NewChecker(cfg.DailyLoadThreshold),
		scheduler: timetable.NewScheduler(timetable.Options{
			SpreadAcrossDays: cfg.SpreadAcrossDays,
			MaxSteps:         cfg.MaxSteps,
		}, logger.Named("scheduler")),
		locks: locks,
		cfg:   cfg,
	}
}

// AutoSchedule fills the unplaced credits of a version and persists the new
// blocks in a single transaction. Runs on the same version are serialised.
func (s *TimetableService) AutoSchedule(ctx context.Context, ownerID, scheduleID, actorID int64) (*dto.AutoScheduleResponse, error) {
	unlock := s.locks.Lock(scheduleID)
	defer unlock()

	schedule, err := s.loadSchedule(ctx, ownerID, scheduleID)
	if err != nil {
		return nil, err
	}
	grid, err := s.Grid(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	input, err := s.loadInput(ctx, schedule, grid)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.scheduler.Run(input)
	if err != nil {
		return nil, s.translateRunError(schedule.ID, err, time.Since(start))
	}
	s.metrics.ObserveSchedulerRun(RunOutcomeScheduled, result.Stats.Steps, len(result.Blocks), result.Stats.Duration)

	resp := &dto.AutoScheduleResponse{ScheduleID: schedule.ID, Created: result.Blocks, Stats: result.Stats}
	if len(result.Blocks) == 0 {
		return resp, nil
	}

	if err := s.persistBlocks(ctx, result.Blocks); err != nil {
		return nil, err
	}

	s.logger.Info("auto schedule persisted",
		zap.Int64("schedule_id", schedule.ID),
		zap.Int("created", len(result.Blocks)),
		zap.Int("steps", result.Stats.Steps),
	)
	s.afterMutation(ctx, schedule, models.AuditTriggerAutoSchedule, actorID)
	return resp, nil
}

// Validate runs the full audit of a version, serving cached reports when
// enabled. The boolean reports a cache hit. Fresh reports are computed and
// stored while holding the version lock.
func (s *TimetableService) Validate(ctx context.Context, ownerID, scheduleID int64) (*timetable.ValidationResult, bool, error) {
	schedule, err := s.loadSchedule(ctx, ownerID, scheduleID)
	if err != nil {
		return nil, false, err
	}

	if cached, hit := s.cache.ValidationReport(ctx, ownerID, schedule.ID); hit {
		return cached, true, nil
	}

	unlock := s.locks.Lock(schedule.ID)
	defer unlock()

	blocks, err := s.stores.Blocks.ListBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture blocks")
	}
	offs, err := s.stores.TimeOffs.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher time offs")
	}

	result := s.checker.ValidateSchedule(blocks, offs)
	s.cache.StoreValidationReport(ctx, ownerID, schedule.ID, result, s.cfg.ValidationTTL)
	return &result, false, nil
}

// CheckPlacement previews a placement. An unknown group is reported as an
// INVALID_GROUP violation rather than an error.
func (s *TimetableService) CheckPlacement(ctx context.Context, ownerID int64, req dto.PlacementCheckRequest) (*timetable.ValidationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement check payload")
	}
	schedule, err := s.loadSchedule(ctx, ownerID, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	result, _, err := s.evaluate(ctx, schedule, req.GroupID, req.Day, req.Period, req.RoomID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateBlock places one block by hand after the same checks CheckPlacement runs.
// Rejections carry the violation list in the error details.
func (s *TimetableService) CreateBlock(ctx context.Context, ownerID, scheduleID, actorID int64, req dto.CreateLectureBlockRequest) (*models.LectureBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecture block payload")
	}

	unlock := s.locks.Lock(scheduleID)
	defer unlock()

	schedule, err := s.loadSchedule(ctx, ownerID, scheduleID)
	if err != nil {
		return nil, err
	}
	result, placement, err := s.evaluate(ctx, schedule, req.GroupID, req.Day, req.Period, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return nil, appErrors.WithDetails(appErrors.ErrPlacementRejected, result)
	}

	block := models.LectureBlock{
		Day:     placement.day,
		Period:  req.Period,
		RoomID:  placement.roomID,
		IsFixed: req.IsFixed,
	}.WithGroup(*placement.group)
	if err := s.stores.Blocks.Create(ctx, nil, &block); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecture block")
	}

	s.afterMutation(ctx, schedule, models.AuditTriggerBlockCreate, actorID)
	return &block, nil
}

// ListBlocks returns the blocks of a version.
func (s *TimetableService) ListBlocks(ctx context.Context, ownerID, scheduleID int64) ([]models.LectureBlock, error) {
	schedule, err := s.loadSchedule(ctx, ownerID, scheduleID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.stores.Blocks.ListBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecture blocks")
	}
	if blocks == nil {
		blocks = []models.LectureBlock{}
	}
	return blocks, nil
}

// DeleteBlock removes one block of the version.
func (s *TimetableService) DeleteBlock(ctx context.Context, ownerID, scheduleID, blockID, actorID int64) error {
	unlock := s.locks.Lock(scheduleID)
	defer unlock()

	schedule, err := s.loadSchedule(ctx, ownerID, scheduleID)
	if err != nil {
		return err
	}
	block, err := s.stores.Blocks.FindByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lecture block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture block")
	}
	if block.ScheduleID != schedule.ID {
		return appErrors.Clone(appErrors.ErrNotFound, "lecture block not found")
	}
	if err := s.stores.Blocks.Delete(ctx, blockID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lecture block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lecture block")
	}

	s.afterMutation(ctx, schedule, models.AuditTriggerBlockDelete, actorID)
	return nil
}

// Reset removes every block of a version and, optionally, its groups.
func (s *TimetableService) Reset(ctx context.Context, ownerID, scheduleID, actorID int64, includeGroups bool) (*dto.ResetScheduleResponse, error) {
	unlock := s.locks.Lock(scheduleID)
	defer unlock()

	schedule, err := s.loadSchedule(ctx, ownerID, scheduleID)
	if err != nil {
		return nil, err
	}
	if s.stores.Tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.stores.Tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	resp := &dto.ResetScheduleResponse{ScheduleID: schedule.ID}
	resp.DeletedBlocks, err = s.stores.Blocks.DeleteBySchedule(ctx, tx, schedule.ID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lecture blocks")
		return nil, err
	}
	if includeGroups {
		resp.DeletedGroups, err = s.stores.Groups.DeleteBySchedule(ctx, tx, schedule.ID)
		if err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lecture groups")
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reset transaction")
		return nil, err
	}

	s.afterMutation(ctx, schedule, models.AuditTriggerReset, actorID)
	return resp, nil
}

// Grid builds the slot grid of an owner, falling back to the configured
// defaults when the school setup has not been completed.
func (s *TimetableService) Grid(ctx context.Context, ownerID int64) (timetable.Grid, error) {
	days, periods := s.cfg.DefaultDays, s.cfg.DefaultPeriods
	if s.stores.Configs != nil {
		cfg, err := s.stores.Configs.Get(ctx, ownerID)
		switch {
		case err == nil:
			days, periods = cfg.DaysPerWeek, cfg.PeriodsPerDay
		case errors.Is(err, sql.ErrNoRows):
		default:
			return timetable.Grid{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school configuration")
		}
	}
	grid, err := timetable.NewGrid(days, periods)
	if err != nil {
		return timetable.Grid{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return grid, nil
}

func (s *TimetableService) loadSchedule(ctx context.Context, ownerID, scheduleID int64) (*models.ScheduleMetadata, error) {
	schedule, err := s.stores.Schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return schedule, nil
}

func (s *TimetableService) loadInput(ctx context.Context, schedule *models.ScheduleMetadata, grid timetable.Grid) (timetable.Input, error) {
	in := timetable.Input{Grid: grid}
	var err error
	if in.Groups, err = s.stores.Groups.ListBySchedule(ctx, schedule.ID); err != nil {
		return in, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture groups")
	}
	if in.Existing, err = s.stores.Blocks.ListBySchedule(ctx, schedule.ID); err != nil {
		return in, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture blocks")
	}
	if in.Subjects, err = s.stores.Subjects.ListByOwner(ctx, schedule.OwnerID); err != nil {
		return in, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	if s.stores.Facilities != nil {
		facilities, err := s.stores.Facilities.ListByOwner(ctx, schedule.OwnerID)
		if err != nil {
			return in, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facilities")
		}
		in.Facilities = facilities
		if in.Facilities == nil {
			in.Facilities = []models.Facility{}
		}
	}
	if in.TimeOffs, err = s.stores.TimeOffs.ListByOwner(ctx, schedule.OwnerID); err != nil {
		return in, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher time offs")
	}
	return in, nil
}

func (s *TimetableService) translateRunError(scheduleID int64, err error, elapsed time.Duration) error {
	var (
		infeasible *timetable.InfeasibleError
		invalid    *timetable.InvalidInputError
		config     *timetable.ConfigurationError
	)
	switch {
	case errors.As(err, &infeasible):
		s.metrics.ObserveSchedulerRun(RunOutcomeInfeasible, infeasible.Steps, 0, elapsed)
		s.logger.Warn("auto schedule infeasible",
			zap.Int64("schedule_id", scheduleID),
			zap.Int("tasks", infeasible.Tasks),
			zap.Int("steps", infeasible.Steps),
			zap.Bool("budget_exceeded", infeasible.BudgetExceeded),
		)
		appErr := appErrors.Wrap(err, appErrors.ErrSchedulingInfeasible.Code, appErrors.ErrSchedulingInfeasible.Status, appErrors.ErrSchedulingInfeasible.Message)
		appErr.Details = map[string]interface{}{
			"tasks":           infeasible.Tasks,
			"steps":           infeasible.Steps,
			"budget_exceeded": infeasible.BudgetExceeded,
		}
		return appErr
	case errors.As(err, &invalid):
		s.metrics.ObserveSchedulerRun(RunOutcomeInvalid, 0, 0, elapsed)
		return appErrors.Wrap(err, appErrors.ErrInvalidReference.Code, appErrors.ErrInvalidReference.Status, invalid.Error())
	case errors.As(err, &config):
		s.metrics.ObserveSchedulerRun(RunOutcomeInvalid, 0, 0, elapsed)
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, config.Error())
	default:
		s.metrics.ObserveSchedulerRun(RunOutcomeError, 0, 0, elapsed)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "auto schedule failed")
	}
}

func (s *TimetableService) persistBlocks(ctx context.Context, blocks []models.LectureBlock) (err error) {
	if s.stores.Tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.stores.Tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.stores.Blocks.BulkCreate(ctx, tx, blocks); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist lecture blocks")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit lecture blocks")
		return err
	}
	return nil
}

type placement struct {
	group  *models.LectureGroup
	day    string
	roomID *int64
}

// evaluate runs the placement checker against the current blocks of a version.
// A subject's required facility fills in an omitted room.
func (s *TimetableService) evaluate(ctx context.Context, schedule *models.ScheduleMetadata, groupID int64, rawDay string, period int, roomID *int64) (*timetable.ValidationResult, *placement, error) {
	grid, err := s.Grid(ctx, schedule.OwnerID)
	if err != nil {
		return nil, nil, err
	}
	day := timetable.NormalizeDay(rawDay)
	if !grid.Contains(day, period) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %s-%d is outside the school week", rawDay, period))
	}

	p := &placement{day: day, roomID: roomID}
	group, err := s.stores.Groups.FindByID(ctx, groupID)
	switch {
	case err == nil && group.ScheduleID == schedule.ID:
		p.group = group
	case err == nil, errors.Is(err, sql.ErrNoRows):
	default:
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture group")
	}

	if p.group != nil && p.roomID == nil {
		subjects, err := s.stores.Subjects.ListByOwner(ctx, schedule.OwnerID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
		}
		for _, subject := range subjects {
			if subject.ID == p.group.SubjectID {
				p.roomID = subject.RequiredFacilityID
				break
			}
		}
	}

	existing, err := s.stores.Blocks.ListBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture blocks")
	}
	offs, err := s.stores.TimeOffs.ListByOwner(ctx, schedule.OwnerID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher time offs")
	}
	result := s.checker.CheckPlacementWithTimeOff(p.group, day, period, p.roomID, existing, offs)
	s.metrics.RecordPlacementCheck(result.IsValid)
	return &result, p, nil
}

// afterMutation drops the cached report and queues a post-commit audit.
func (s *TimetableService) afterMutation(ctx context.Context, schedule *models.ScheduleMetadata, trigger string, actorID int64) {
	s.cache.ForgetValidationReport(ctx, schedule.OwnerID, schedule.ID)
	if s.audits == nil {
		return
	}
	req := AuditRequest{ScheduleID: schedule.ID, OwnerID: schedule.OwnerID, Trigger: trigger}
	if actorID > 0 {
		req.RequestedBy = &actorID
	}
	if err := s.audits.Enqueue(ctx, req); err != nil {
		s.logger.Warn("failed to enqueue schedule audit", zap.Int64("schedule_id", schedule.ID), zap.Error(err))
	}
}
