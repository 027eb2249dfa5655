package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type lectureGroupRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, group *models.LectureGroup) error
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, groups []models.LectureGroup) error
	ListBySchedule(ctx context.Context, scheduleID int64) ([]models.LectureGroup, error)
	FindByID(ctx context.Context, id int64) (*models.LectureGroup, error)
	Delete(ctx context.Context, id int64) error
}

type subjectFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

type teacherFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
}

// LectureGroupService manages the teaching assignments of a schedule version.
type LectureGroupService struct {
	schedules scheduleMetadataReader
	groups    lectureGroupRepository
	subjects  subjectFinder
	teachers  teacherFinder
	tx        txProvider
	cache     *CacheService
	audits    auditEnqueuer
	locks     *VersionLocks
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLectureGroupService constructs the service. locks must be the set the
// TimetableService uses; nil gets a private set.
func NewLectureGroupService(
	schedules scheduleMetadataReader,
	groups lectureGroupRepository,
	subjects subjectFinder,
	teachers teacherFinder,
	tx txProvider,
	cache *CacheService,
	audits auditEnqueuer,
	locks *VersionLocks,
	validate *validator.Validate,
	logger *zap.Logger,
) *LectureGroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewVersionLocks()
	}
	return &LectureGroupService{
		schedules: schedules,
		groups:    groups,
		subjects:  subjects,
		teachers:  teachers,
		tx:        tx,
		cache:     cache,
		audits:    audits,
		locks:     locks,
		validator: validate,
		logger:    logger,
	}
}

// Create adds one group to a version.
func (s *LectureGroupService) Create(ctx context.Context, ownerID, scheduleID int64, req dto.CreateLectureGroupRequest) (*models.LectureGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecture group payload")
	}
	schedule, err := s.ownedSchedule(ctx, ownerID, scheduleID)
	if err != nil {
		return nil, err
	}
	group, err := s.buildGroup(ctx, schedule, req)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(schedule.ID)
	defer unlock()
	if err := s.groups.Create(ctx, nil, &group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecture group")
	}
	return &group, nil
}

// BatchCreate adds many groups in one transaction; any invalid entry rejects the batch.
func (s *LectureGroupService) BatchCreate(ctx context.Context, ownerID, scheduleID int64, req dto.BatchLectureGroupRequest) ([]models.LectureGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecture group batch payload")
	}
	schedule, err := s.ownedSchedule(ctx, ownerID, scheduleID)
	if err != nil {
		return nil, err
	}

	groups := make([]models.LectureGroup, 0, len(req.Groups))
	for i, item := range req.Groups {
		group, err := s.buildGroup(ctx, schedule, item)
		if err != nil {
			if appErr := appErrors.FromError(err); appErr.Status < 500 {
				return nil, appErrors.Clone(appErr, fmt.Sprintf("groups[%d]: %s", i, appErr.Message))
			}
			return nil, err
		}
		groups = append(groups, group)
	}

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	unlock := s.locks.Lock(schedule.ID)
	defer unlock()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err := s.groups.BulkCreate(ctx, tx, groups); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecture groups")
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit lecture groups")
	}

	s.logger.Info("lecture groups created", zap.Int64("schedule_id", schedule.ID), zap.Int("count", len(groups)))
	return groups, nil
}

// List returns the groups of a version.
func (s *LectureGroupService) List(ctx context.Context, ownerID, scheduleID int64) ([]models.LectureGroup, error) {
	schedule, err := s.ownedSchedule(ctx, ownerID, scheduleID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.ListBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecture groups")
	}
	if groups == nil {
		groups = []models.LectureGroup{}
	}
	return groups, nil
}

// Delete removes a group together with its placed blocks under the version lock
// shared with TimetableService.
func (s *LectureGroupService) Delete(ctx context.Context, ownerID, scheduleID, groupID, actorID int64) error {
	schedule, err := s.ownedSchedule(ctx, ownerID, scheduleID)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(schedule.ID)
	defer unlock()
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "lecture group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture group")
	}
	if group.ScheduleID != schedule.ID {
		return appErrors.Clone(appErrors.ErrNotFound, "lecture group not found")
	}
	if err := s.groups.Delete(ctx, groupID); err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "lecture group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lecture group")
	}

	s.cache.ForgetValidationReport(ctx, ownerID, schedule.ID)
	if s.audits != nil {
		req := AuditRequest{ScheduleID: schedule.ID, OwnerID: ownerID, Trigger: models.AuditTriggerGroupDelete}
		if actorID > 0 {
			req.RequestedBy = &actorID
		}
		if err := s.audits.Enqueue(ctx, req); err != nil {
			s.logger.Warn("failed to enqueue schedule audit", zap.Int64("schedule_id", schedule.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *LectureGroupService) ownedSchedule(ctx context.Context, ownerID, scheduleID int64) (*models.ScheduleMetadata, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return schedule, nil
}

func (s *LectureGroupService) buildGroup(ctx context.Context, schedule *models.ScheduleMetadata, req dto.CreateLectureGroupRequest) (models.LectureGroup, error) {
	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil && !isNoRows(err) {
		return models.LectureGroup{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err != nil || subject.OwnerID != schedule.OwnerID {
		return models.LectureGroup{}, appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("subject %d does not exist", req.SubjectID))
	}

	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil && !isNoRows(err) {
		return models.LectureGroup{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if err != nil || teacher.OwnerID != schedule.OwnerID {
		return models.LectureGroup{}, appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("teacher %d does not exist", req.TeacherID))
	}

	return models.LectureGroup{
		ScheduleID:    schedule.ID,
		SubjectID:     subject.ID,
		TeacherID:     teacher.ID,
		Grade:         req.Grade,
		ClassNum:      req.ClassNum,
		TotalCredits:  req.TotalCredits,
		SlicingOption: req.SlicingOption,
	}, nil
}
