package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TeacherTimeOffRepository stores teacher blackout slots.
type TeacherTimeOffRepository struct {
	db *sqlx.DB
}

// NewTeacherTimeOffRepository creates a new repository instance.
func NewTeacherTimeOffRepository(db *sqlx.DB) *TeacherTimeOffRepository {
	return &TeacherTimeOffRepository{db: db}
}

func (r *TeacherTimeOffRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByOwner returns every time-off row of an owner.
func (r *TeacherTimeOffRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.TeacherTimeOff, error) {
	const query = `SELECT id, owner_id, teacher_id, day, period, reason, created_at FROM teacher_time_offs WHERE owner_id = $1 ORDER BY teacher_id ASC, id ASC`
	var offs []models.TeacherTimeOff
	if err := r.db.SelectContext(ctx, &offs, query, ownerID); err != nil {
		return nil, fmt.Errorf("list teacher time offs: %w", err)
	}
	return offs, nil
}

// ReplaceForOwner deletes the owner's time-offs and inserts the provided set.
// Callers pass a transaction so readers never observe a partial set.
func (r *TeacherTimeOffRepository) ReplaceForOwner(ctx context.Context, exec sqlx.ExtContext, ownerID int64, offs []models.TeacherTimeOff) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM teacher_time_offs WHERE owner_id = $1`, ownerID); err != nil {
		return fmt.Errorf("clear teacher time offs: %w", err)
	}

	now := time.Now().UTC()
	const insertQuery = `
INSERT INTO teacher_time_offs (owner_id, teacher_id, day, period, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	for i := range offs {
		off := &offs[i]
		off.OwnerID = ownerID
		if off.CreatedAt.IsZero() {
			off.CreatedAt = now
		}
		if err := sqlx.GetContext(ctx, target, &off.ID, insertQuery,
			off.OwnerID, off.TeacherID, off.Day, off.Period, off.Reason, off.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert teacher time off: %w", err)
		}
	}
	return nil
}
