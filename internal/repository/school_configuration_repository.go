package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// SchoolConfigurationRepository stores the grid dimensions of each owner.
type SchoolConfigurationRepository struct {
	db *sqlx.DB
}

// NewSchoolConfigurationRepository creates a new repository instance.
func NewSchoolConfigurationRepository(db *sqlx.DB) *SchoolConfigurationRepository {
	return &SchoolConfigurationRepository{db: db}
}

// Get loads the configuration of an owner, returning sql.ErrNoRows when absent.
func (r *SchoolConfigurationRepository) Get(ctx context.Context, ownerID int64) (*models.SchoolConfiguration, error) {
	const query = `SELECT owner_id, school_name, days_per_week, periods_per_day, lunch_period, updated_at FROM school_configurations WHERE owner_id = $1`
	var cfg models.SchoolConfiguration
	if err := r.db.GetContext(ctx, &cfg, query, ownerID); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Upsert inserts or replaces the configuration of an owner.
func (r *SchoolConfigurationRepository) Upsert(ctx context.Context, cfg *models.SchoolConfiguration) error {
	cfg.UpdatedAt = time.Now().UTC()
	const query = `
INSERT INTO school_configurations (owner_id, school_name, days_per_week, periods_per_day, lunch_period, updated_at)
VALUES (:owner_id, :school_name, :days_per_week, :periods_per_day, :lunch_period, :updated_at)
ON CONFLICT (owner_id) DO UPDATE
SET school_name = EXCLUDED.school_name,
    days_per_week = EXCLUDED.days_per_week,
    periods_per_day = EXCLUDED.periods_per_day,
    lunch_period = EXCLUDED.lunch_period,
    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("upsert school configuration: %w", err)
	}
	return nil
}
