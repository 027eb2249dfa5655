package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// LectureBlockRepository manages placed blocks. Reads join the owning group so
// callers get teacher, subject and class attributes on every block.
type LectureBlockRepository struct {
	db *sqlx.DB
}

// NewLectureBlockRepository builds repository.
func NewLectureBlockRepository(db *sqlx.DB) *LectureBlockRepository {
	return &LectureBlockRepository{db: db}
}

func (r *LectureBlockRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const lectureBlockSelect = `SELECT b.id, b.group_id, b.day, b.period, b.room_id, b.is_fixed, b.created_at,
g.schedule_id, g.teacher_id, g.subject_id, g.grade, g.class_num
FROM lecture_blocks b
JOIN lecture_groups g ON g.id = b.group_id`

// ListBySchedule returns the blocks of a version ordered by slot.
func (r *LectureBlockRepository) ListBySchedule(ctx context.Context, scheduleID int64) ([]models.LectureBlock, error) {
	query := lectureBlockSelect + `
WHERE g.schedule_id = $1
ORDER BY array_position(ARRAY['MON','TUE','WED','THU','FRI','SAT','SUN'], b.day), b.period ASC, b.id ASC`
	var blocks []models.LectureBlock
	if err := r.db.SelectContext(ctx, &blocks, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list lecture blocks: %w", err)
	}
	return blocks, nil
}

// FindByID loads a block with its group attributes.
func (r *LectureBlockRepository) FindByID(ctx context.Context, id int64) (*models.LectureBlock, error) {
	query := lectureBlockSelect + `
WHERE b.id = $1`
	var block models.LectureBlock
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// Create inserts one block and assigns its id.
func (r *LectureBlockRepository) Create(ctx context.Context, exec sqlx.ExtContext, block *models.LectureBlock) error {
	if block == nil {
		return fmt.Errorf("lecture block payload is nil")
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO lecture_blocks (group_id, day, period, room_id, is_fixed, created_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &block.ID, query,
		block.GroupID, block.Day, block.Period, block.RoomID, block.IsFixed, block.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert lecture block: %w", err)
	}
	return nil
}

// BulkCreate inserts blocks in order, assigning ids in place.
func (r *LectureBlockRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, blocks []models.LectureBlock) error {
	for i := range blocks {
		if err := r.Create(ctx, exec, &blocks[i]); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a single block.
func (r *LectureBlockRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lecture_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lecture block: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("lecture block rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteBySchedule removes every block of a version.
func (r *LectureBlockRepository) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID int64) (int64, error) {
	const query = `DELETE FROM lecture_blocks WHERE group_id IN (SELECT id FROM lecture_groups WHERE schedule_id = $1)`
	result, err := r.exec(exec).ExecContext(ctx, query, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("delete lecture blocks by schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("lecture blocks rows affected: %w", err)
	}
	return affected, nil
}
