package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type scheduleMetadataRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.ScheduleMetadata) error
	ListByOwner(ctx context.Context, ownerID int64) ([]models.ScheduleMetadata, error)
	FindByID(ctx context.Context, id int64) (*models.ScheduleMetadata, error)
	FindActive(ctx context.Context, ownerID int64) (*models.ScheduleMetadata, error)
	FindLatest(ctx context.Context, ownerID int64) (*models.ScheduleMetadata, error)
	DeactivateAll(ctx context.Context, exec sqlx.ExtContext, ownerID int64) error
	Activate(ctx context.Context, exec sqlx.ExtContext, id int64) error
	Publish(ctx context.Context, exec sqlx.ExtContext, id int64) error
	Delete(ctx context.Context, id int64) error
}

// ScheduleVersionService manages schedule versions and the single active flag.
type ScheduleVersionService struct {
	repo      scheduleMetadataRepository
	tx        txProvider
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleVersionService constructs the service.
func NewScheduleVersionService(repo scheduleMetadataRepository, tx txProvider, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleVersionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleVersionService{repo: repo, tx: tx, cache: cache, validator: validate, logger: logger}
}

// Create opens the next version for the owner. Activating it deactivates every
// other version in the same transaction.
func (s *ScheduleVersionService) Create(ctx context.Context, ownerID int64, req dto.CreateScheduleRequest) (*models.ScheduleMetadata, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	record := &models.ScheduleMetadata{OwnerID: ownerID, Name: req.Name, IsActive: req.Activate}
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if req.Activate {
			if err := s.repo.DeactivateAll(ctx, tx, ownerID); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate schedules")
			}
		}
		if err := s.repo.CreateVersioned(ctx, tx, record); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("schedule version created", zap.Int64("owner_id", ownerID), zap.Int64("schedule_id", record.ID), zap.Int("version", record.Version))
	return record, nil
}

// List returns every version of the owner, newest first.
func (s *ScheduleVersionService) List(ctx context.Context, ownerID int64) ([]models.ScheduleMetadata, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if list == nil {
		list = []models.ScheduleMetadata{}
	}
	return list, nil
}

// Get loads one version of the owner.
func (s *ScheduleVersionService) Get(ctx context.Context, ownerID, scheduleID int64) (*models.ScheduleMetadata, error) {
	record, err := s.repo.FindByID(ctx, scheduleID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if record.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return record, nil
}

// GetActive returns the active version, falling back to the latest one.
func (s *ScheduleVersionService) GetActive(ctx context.Context, ownerID int64) (*models.ScheduleMetadata, error) {
	record, err := s.repo.FindActive(ctx, ownerID)
	if err == nil {
		return record, nil
	}
	if !isNoRows(err) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active schedule")
	}
	record, err = s.repo.FindLatest(ctx, ownerID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no schedule has been created yet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest schedule")
	}
	return record, nil
}

// Activate makes one version the only active one.
func (s *ScheduleVersionService) Activate(ctx context.Context, ownerID, scheduleID int64) (*models.ScheduleMetadata, error) {
	record, err := s.Get(ctx, ownerID, scheduleID)
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.DeactivateAll(ctx, tx, ownerID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate schedules")
		}
		if err := s.repo.Activate(ctx, tx, record.ID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate schedule")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	record.IsActive = true
	return record, nil
}

// Publish marks a version as published.
func (s *ScheduleVersionService) Publish(ctx context.Context, ownerID, scheduleID int64) (*models.ScheduleMetadata, error) {
	record, err := s.Get(ctx, ownerID, scheduleID)
	if err != nil {
		return nil, err
	}
	if record.IsPublished {
		return record, nil
	}
	if err := s.repo.Publish(ctx, nil, record.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish schedule")
	}
	record.IsPublished = true
	return record, nil
}

// Delete removes an unpublished, inactive version with everything in it.
func (s *ScheduleVersionService) Delete(ctx context.Context, ownerID, scheduleID int64) error {
	record, err := s.Get(ctx, ownerID, scheduleID)
	if err != nil {
		return err
	}
	if record.IsActive || record.IsPublished {
		return appErrors.Clone(appErrors.ErrConflict, "active or published schedules cannot be deleted")
	}
	if err := s.repo.Delete(ctx, record.ID); err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.cache.ForgetValidationReport(ctx, ownerID, record.ID)
	return nil
}

func (s *ScheduleVersionService) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
