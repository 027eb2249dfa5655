package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const lectureGroupColumns = `id, schedule_id, subject_id, teacher_id, grade, class_num, total_credits, slicing_option, created_at`

// LectureGroupRepository manages lecture groups of a schedule version.
type LectureGroupRepository struct {
	db *sqlx.DB
}

// NewLectureGroupRepository builds repository.
func NewLectureGroupRepository(db *sqlx.DB) *LectureGroupRepository {
	return &LectureGroupRepository{db: db}
}

func (r *LectureGroupRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts one group and assigns its id.
func (r *LectureGroupRepository) Create(ctx context.Context, exec sqlx.ExtContext, group *models.LectureGroup) error {
	if group == nil {
		return fmt.Errorf("lecture group payload is nil")
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO lecture_groups (schedule_id, subject_id, teacher_id, grade, class_num, total_credits, slicing_option, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &group.ID, query,
		group.ScheduleID, group.SubjectID, group.TeacherID, group.Grade, group.ClassNum, group.TotalCredits, group.SlicingOption, group.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert lecture group: %w", err)
	}
	return nil
}

// BulkCreate inserts groups in order using the supplied executor.
func (r *LectureGroupRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, groups []models.LectureGroup) error {
	for i := range groups {
		if err := r.Create(ctx, exec, &groups[i]); err != nil {
			return err
		}
	}
	return nil
}

// ListBySchedule returns the groups of a version in id order, which is the scheduler's task order.
func (r *LectureGroupRepository) ListBySchedule(ctx context.Context, scheduleID int64) ([]models.LectureGroup, error) {
	query := `SELECT ` + lectureGroupColumns + ` FROM lecture_groups WHERE schedule_id = $1 ORDER BY id ASC`
	var groups []models.LectureGroup
	if err := r.db.SelectContext(ctx, &groups, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list lecture groups: %w", err)
	}
	return groups, nil
}

// FindByID loads a group.
func (r *LectureGroupRepository) FindByID(ctx context.Context, id int64) (*models.LectureGroup, error) {
	query := `SELECT ` + lectureGroupColumns + ` FROM lecture_groups WHERE id = $1`
	var group models.LectureGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Delete removes a group and, through the foreign key, its blocks.
func (r *LectureGroupRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lecture_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lecture group: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("lecture group rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteBySchedule removes every group of a version and returns how many were removed.
func (r *LectureGroupRepository) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID int64) (int64, error) {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM lecture_groups WHERE schedule_id = $1`, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("delete lecture groups by schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("lecture groups rows affected: %w", err)
	}
	return affected, nil
}
