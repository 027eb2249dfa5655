package models

import "time"

// ScheduleMetadata is a named, versioned container of lecture groups and blocks.
// At most one version is active at a time; the service layer enforces that.
type ScheduleMetadata struct {
	ID          int64     `db:"id" json:"id"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	Name        string    `db:"name" json:"name"`
	Version     int       `db:"version" json:"version"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
