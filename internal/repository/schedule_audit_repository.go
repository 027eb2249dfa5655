package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ScheduleAuditRepository records post-commit validation reports.
type ScheduleAuditRepository struct {
	db *sqlx.DB
}

// NewScheduleAuditRepository creates a new repository instance.
func NewScheduleAuditRepository(db *sqlx.DB) *ScheduleAuditRepository {
	return &ScheduleAuditRepository{db: db}
}

// Create persists one audit row.
func (r *ScheduleAuditRepository) Create(ctx context.Context, audit *models.ScheduleAudit) error {
	if audit == nil {
		return fmt.Errorf("schedule audit payload is nil")
	}
	if len(audit.Report) == 0 {
		audit.Report = types.JSONText(`{}`)
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO schedule_audits (schedule_id, trigger, is_valid, error_count, block_count, report, requested_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &audit.ID, query,
		audit.ScheduleID, audit.Trigger, audit.IsValid, audit.ErrorCount, audit.BlockCount, audit.Report, audit.RequestedBy, audit.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert schedule audit: %w", err)
	}
	return nil
}

// ListBySchedule returns the most recent audits of a version.
func (r *ScheduleAuditRepository) ListBySchedule(ctx context.Context, scheduleID int64, limit int) ([]models.ScheduleAudit, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT id, schedule_id, trigger, is_valid, error_count, block_count, report, requested_by, created_at
FROM schedule_audits WHERE schedule_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	var audits []models.ScheduleAudit
	if err := r.db.SelectContext(ctx, &audits, query, scheduleID, limit); err != nil {
		return nil, fmt.Errorf("list schedule audits: %w", err)
	}
	return audits, nil
}
