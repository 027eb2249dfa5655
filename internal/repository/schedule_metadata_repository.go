package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const scheduleMetadataColumns = `id, owner_id, name, version, is_active, is_published, created_at, updated_at`

// ScheduleMetadataRepository persists versioned schedule containers.
type ScheduleMetadataRepository struct {
	db *sqlx.DB
}

// NewScheduleMetadataRepository constructs repository.
func NewScheduleMetadataRepository(db *sqlx.DB) *ScheduleMetadataRepository {
	return &ScheduleMetadataRepository{db: db}
}

func (r *ScheduleMetadataRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a schedule assigning the next version number for the owner.
func (r *ScheduleMetadataRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.ScheduleMetadata) error {
	if schedule == nil {
		return fmt.Errorf("schedule payload is nil")
	}
	if schedule.OwnerID == 0 {
		return fmt.Errorf("owner_id is required")
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM schedule_metadata WHERE owner_id = $1`
	if err := sqlx.GetContext(ctx, target, &schedule.Version, nextVersionQuery, schedule.OwnerID); err != nil {
		return fmt.Errorf("compute next schedule version: %w", err)
	}

	const insertQuery = `
INSERT INTO schedule_metadata (owner_id, name, version, is_active, is_published, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := sqlx.GetContext(ctx, target, &schedule.ID, insertQuery,
		schedule.OwnerID, schedule.Name, schedule.Version, schedule.IsActive, schedule.IsPublished, schedule.CreatedAt, schedule.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert schedule metadata: %w", err)
	}
	return nil
}

// ListByOwner returns every version for the owner, newest first.
func (r *ScheduleMetadataRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.ScheduleMetadata, error) {
	query := `SELECT ` + scheduleMetadataColumns + ` FROM schedule_metadata WHERE owner_id = $1 ORDER BY version DESC`
	var schedules []models.ScheduleMetadata
	if err := r.db.SelectContext(ctx, &schedules, query, ownerID); err != nil {
		return nil, fmt.Errorf("list schedule metadata: %w", err)
	}
	return schedules, nil
}

// FindByID loads a schedule version by id.
func (r *ScheduleMetadataRepository) FindByID(ctx context.Context, id int64) (*models.ScheduleMetadata, error) {
	query := `SELECT ` + scheduleMetadataColumns + ` FROM schedule_metadata WHERE id = $1`
	var schedule models.ScheduleMetadata
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindActive returns the active version of the owner.
func (r *ScheduleMetadataRepository) FindActive(ctx context.Context, ownerID int64) (*models.ScheduleMetadata, error) {
	query := `SELECT ` + scheduleMetadataColumns + ` FROM schedule_metadata WHERE owner_id = $1 AND is_active = TRUE ORDER BY version DESC LIMIT 1`
	var schedule models.ScheduleMetadata
	if err := r.db.GetContext(ctx, &schedule, query, ownerID); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindLatest returns the highest version of the owner regardless of status.
func (r *ScheduleMetadataRepository) FindLatest(ctx context.Context, ownerID int64) (*models.ScheduleMetadata, error) {
	query := `SELECT ` + scheduleMetadataColumns + ` FROM schedule_metadata WHERE owner_id = $1 ORDER BY version DESC LIMIT 1`
	var schedule models.ScheduleMetadata
	if err := r.db.GetContext(ctx, &schedule, query, ownerID); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// DeactivateAll clears the active flag on every version of the owner.
func (r *ScheduleMetadataRepository) DeactivateAll(ctx context.Context, exec sqlx.ExtContext, ownerID int64) error {
	const query = `UPDATE schedule_metadata SET is_active = FALSE, updated_at = $1 WHERE owner_id = $2 AND is_active = TRUE`
	if _, err := r.exec(exec).ExecContext(ctx, query, time.Now().UTC(), ownerID); err != nil {
		return fmt.Errorf("deactivate schedule metadata: %w", err)
	}
	return nil
}

// Activate marks a single version active.
func (r *ScheduleMetadataRepository) Activate(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	const query = `UPDATE schedule_metadata SET is_active = TRUE, updated_at = $1 WHERE id = $2`
	return r.updateOne(ctx, exec, "activate", query, time.Now().UTC(), id)
}

// Publish marks a version as published.
func (r *ScheduleMetadataRepository) Publish(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	const query = `UPDATE schedule_metadata SET is_published = TRUE, updated_at = $1 WHERE id = $2`
	return r.updateOne(ctx, exec, "publish", query, time.Now().UTC(), id)
}

// Delete removes a version; groups and blocks cascade in the database.
func (r *ScheduleMetadataRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM schedule_metadata WHERE id = $1`
	return r.updateOne(ctx, nil, "delete", query, id)
}

func (r *ScheduleMetadataRepository) updateOne(ctx context.Context, exec sqlx.ExtContext, op, query string, args ...interface{}) error {
	result, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s schedule metadata: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s schedule metadata rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
