package models

import "time"

// SchoolConfiguration holds the weekly grid dimensions for one owner.
type SchoolConfiguration struct {
	OwnerID       int64     `db:"owner_id" json:"owner_id"`
	SchoolName    string    `db:"school_name" json:"school_name"`
	DaysPerWeek   int       `db:"days_per_week" json:"days_per_week"`
	PeriodsPerDay int       `db:"periods_per_day" json:"periods_per_day"`
	LunchPeriod   *int      `db:"lunch_period" json:"lunch_period,omitempty"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
