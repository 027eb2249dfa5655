package models

import "time"

// FacilityType distinguishes special rooms from ordinary classrooms.
type FacilityType string

const (
	FacilityTypeNormal  FacilityType = "NORMAL"
	FacilityTypeSpecial FacilityType = "SPECIAL"
)

// Facility is a bookable room.
type Facility struct {
	ID        int64        `db:"id" json:"id"`
	OwnerID   int64        `db:"owner_id" json:"owner_id"`
	Name      string       `db:"name" json:"name"`
	Type      FacilityType `db:"type" json:"type"`
	Capacity  int          `db:"capacity" json:"capacity"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
