package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// FacilityRepository handles persistence for rooms.
type FacilityRepository struct {
	db *sqlx.DB
}

// NewFacilityRepository creates a new repository instance.
func NewFacilityRepository(db *sqlx.DB) *FacilityRepository {
	return &FacilityRepository{db: db}
}

// ListByOwner returns every facility of an owner.
func (r *FacilityRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Facility, error) {
	const query = `SELECT id, owner_id, name, type, capacity, created_at FROM facilities WHERE owner_id = $1 ORDER BY id ASC`
	var facilities []models.Facility
	if err := r.db.SelectContext(ctx, &facilities, query, ownerID); err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return facilities, nil
}

// FindByID returns a facility by id.
func (r *FacilityRepository) FindByID(ctx context.Context, id int64) (*models.Facility, error) {
	const query = `SELECT id, owner_id, name, type, capacity, created_at FROM facilities WHERE id = $1`
	var facility models.Facility
	if err := r.db.GetContext(ctx, &facility, query, id); err != nil {
		return nil, err
	}
	return &facility, nil
}

// Create persists a new facility.
func (r *FacilityRepository) Create(ctx context.Context, facility *models.Facility) error {
	if facility.Type == "" {
		facility.Type = models.FacilityTypeNormal
	}
	if facility.CreatedAt.IsZero() {
		facility.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO facilities (owner_id, name, type, capacity, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &facility.ID, query,
		facility.OwnerID, facility.Name, facility.Type, facility.Capacity, facility.CreatedAt,
	); err != nil {
		return fmt.Errorf("create facility: %w", err)
	}
	return nil
}
