package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TeacherRepository handles persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new repository instance.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ListByOwner returns the teachers registered by an owner.
func (r *TeacherRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Teacher, error) {
	const query = `SELECT id, owner_id, name, created_at FROM teachers WHERE owner_id = $1 ORDER BY name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, ownerID); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID returns a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	const query = `SELECT id, owner_id, name, created_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create persists a new teacher.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teachers (owner_id, name, created_at) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.GetContext(ctx, &teacher.ID, query, teacher.OwnerID, teacher.Name, teacher.CreatedAt); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}
