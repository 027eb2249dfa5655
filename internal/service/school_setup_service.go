package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type schoolConfigRepository interface {
	Get(ctx context.Context, ownerID int64) (*models.SchoolConfiguration, error)
	Upsert(ctx context.Context, cfg *models.SchoolConfiguration) error
}

type teacherRepository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Teacher, error)
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
}

type facilityRepository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Facility, error)
	FindByID(ctx context.Context, id int64) (*models.Facility, error)
	Create(ctx context.Context, facility *models.Facility) error
}

type subjectRepository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

type timeOffRepository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]models.TeacherTimeOff, error)
	ReplaceForOwner(ctx context.Context, exec sqlx.ExtContext, ownerID int64, offs []models.TeacherTimeOff) error
}

// SchoolSetupStores groups the persistence dependencies of SchoolSetupService.
type SchoolSetupStores struct {
	Configs    schoolConfigRepository
	Teachers   teacherRepository
	Facilities facilityRepository
	Subjects   subjectRepository
	TimeOffs   timeOffRepository
	Tx         txProvider
}

// SchoolSetupService backs the setup wizard: grid dimensions, teachers, rooms,
// subjects and teacher time-off.
type SchoolSetupService struct {
	stores         SchoolSetupStores
	cache          *CacheService
	validator      *validator.Validate
	logger         *zap.Logger
	defaultDays    int
	defaultPeriods int
}

// NewSchoolSetupService constructs the service.
func NewSchoolSetupService(stores SchoolSetupStores, cache *CacheService, validate *validator.Validate, logger *zap.Logger, defaultDays, defaultPeriods int) *SchoolSetupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultDays <= 0 {
		defaultDays = 5
	}
	if defaultPeriods <= 0 {
		defaultPeriods = 7
	}
	return &SchoolSetupService{
		stores:         stores,
		cache:          cache,
		validator:      validate,
		logger:         logger,
		defaultDays:    defaultDays,
		defaultPeriods: defaultPeriods,
	}
}

// GetConfiguration returns the stored configuration or the defaults.
func (s *SchoolSetupService) GetConfiguration(ctx context.Context, ownerID int64) (*models.SchoolConfiguration, error) {
	cfg, err := s.stores.Configs.Get(ctx, ownerID)
	if err != nil {
		if isNoRows(err) {
			return &models.SchoolConfiguration{OwnerID: ownerID, DaysPerWeek: s.defaultDays, PeriodsPerDay: s.defaultPeriods}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school configuration")
	}
	return cfg, nil
}

// UpsertConfiguration stores the grid dimensions after checking they form a valid grid.
func (s *SchoolSetupService) UpsertConfiguration(ctx context.Context, ownerID int64, req dto.SchoolConfigurationRequest) (*models.SchoolConfiguration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school configuration payload")
	}
	if _, err := timetable.NewGrid(req.DaysPerWeek, req.PeriodsPerDay); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if req.LunchPeriod != nil && *req.LunchPeriod > req.PeriodsPerDay {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lunch_period must not exceed periods_per_day")
	}

	cfg := &models.SchoolConfiguration{
		OwnerID:       ownerID,
		SchoolName:    strings.TrimSpace(req.SchoolName),
		DaysPerWeek:   req.DaysPerWeek,
		PeriodsPerDay: req.PeriodsPerDay,
		LunchPeriod:   req.LunchPeriod,
	}
	if err := s.stores.Configs.Upsert(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save school configuration")
	}
	s.invalidate(ctx, ownerID)
	return cfg, nil
}

// CreateTeacher registers a teacher for the owner.
func (s *SchoolSetupService) CreateTeacher(ctx context.Context, ownerID int64, req dto.CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher := &models.Teacher{OwnerID: ownerID, Name: strings.TrimSpace(req.Name)}
	if err := s.stores.Teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// ListTeachers returns the owner's teachers.
func (s *SchoolSetupService) ListTeachers(ctx context.Context, ownerID int64) ([]models.Teacher, error) {
	teachers, err := s.stores.Teachers.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	return teachers, nil
}

// CreateFacility registers a room for the owner.
func (s *SchoolSetupService) CreateFacility(ctx context.Context, ownerID int64, req dto.CreateFacilityRequest) (*models.Facility, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid facility payload")
	}
	facility := &models.Facility{
		OwnerID:  ownerID,
		Name:     strings.TrimSpace(req.Name),
		Type:     models.FacilityType(req.Type),
		Capacity: req.Capacity,
	}
	if err := s.stores.Facilities.Create(ctx, facility); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create facility")
	}
	return facility, nil
}

// ListFacilities returns the owner's rooms.
func (s *SchoolSetupService) ListFacilities(ctx context.Context, ownerID int64) ([]models.Facility, error) {
	facilities, err := s.stores.Facilities.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list facilities")
	}
	if facilities == nil {
		facilities = []models.Facility{}
	}
	return facilities, nil
}

// CreateSubject registers a subject, checking its required room belongs to the owner.
func (s *SchoolSetupService) CreateSubject(ctx context.Context, ownerID int64, req dto.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if req.RequiredFacilityID != nil {
		facility, err := s.stores.Facilities.FindByID(ctx, *req.RequiredFacilityID)
		if err != nil && !isNoRows(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
		}
		if err != nil || facility.OwnerID != ownerID {
			return nil, appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("facility %d does not exist", *req.RequiredFacilityID))
		}
	}
	subject := &models.Subject{
		OwnerID:            ownerID,
		Name:               strings.TrimSpace(req.Name),
		Category:           req.Category,
		RequiredFacilityID: req.RequiredFacilityID,
	}
	if err := s.stores.Subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// ListSubjects returns the owner's subjects.
func (s *SchoolSetupService) ListSubjects(ctx context.Context, ownerID int64) ([]models.Subject, error) {
	subjects, err := s.stores.Subjects.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// ListTimeOffs returns the owner's teacher blackout slots.
func (s *SchoolSetupService) ListTimeOffs(ctx context.Context, ownerID int64) ([]models.TeacherTimeOff, error) {
	offs, err := s.stores.TimeOffs.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher time offs")
	}
	if offs == nil {
		offs = []models.TeacherTimeOff{}
	}
	return offs, nil
}

// ReplaceTimeOffs swaps the owner's time-off set atomically. Every entry must
// name a known teacher and a slot inside the configured week; duplicates collapse.
func (s *SchoolSetupService) ReplaceTimeOffs(ctx context.Context, ownerID int64, req dto.ReplaceTimeOffsRequest) ([]models.TeacherTimeOff, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time off payload")
	}
	cfg, err := s.GetConfiguration(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	grid, err := timetable.NewGrid(cfg.DaysPerWeek, cfg.PeriodsPerDay)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	known := make(map[int64]bool)
	seen := make(map[timetable.Slot]map[int64]bool)
	offs := make([]models.TeacherTimeOff, 0, len(req.Entries))
	for i, entry := range req.Entries {
		day := timetable.NormalizeDay(entry.Day)
		if !grid.Contains(day, entry.Period) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entries[%d]: slot %s-%d is outside the school week", i, entry.Day, entry.Period))
		}
		if _, checked := known[entry.TeacherID]; !checked {
			teacher, err := s.stores.Teachers.FindByID(ctx, entry.TeacherID)
			if err != nil && !isNoRows(err) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
			}
			known[entry.TeacherID] = err == nil && teacher.OwnerID == ownerID
		}
		if !known[entry.TeacherID] {
			return nil, appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("entries[%d]: teacher %d does not exist", i, entry.TeacherID))
		}

		slot := timetable.Slot{Day: day, Period: entry.Period}
		if seen[slot] == nil {
			seen[slot] = make(map[int64]bool)
		}
		if seen[slot][entry.TeacherID] {
			continue
		}
		seen[slot][entry.TeacherID] = true
		offs = append(offs, models.TeacherTimeOff{TeacherID: entry.TeacherID, Day: day, Period: entry.Period, Reason: entry.Reason})
	}

	if s.stores.Tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.stores.Tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err := s.stores.TimeOffs.ReplaceForOwner(ctx, tx, ownerID, offs); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace teacher time offs")
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit teacher time offs")
	}

	s.invalidate(ctx, ownerID)
	s.logger.Info("teacher time offs replaced", zap.Int64("owner_id", ownerID), zap.Int("count", len(offs)))
	return offs, nil
}

// invalidate drops every cached validation report of the owner; time-off and
// grid changes affect all versions.
func (s *SchoolSetupService) invalidate(ctx context.Context, ownerID int64) {
	s.cache.ForgetOwnerReports(ctx, ownerID)
}
