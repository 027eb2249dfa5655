package models

import "time"

// Subject represents an academic subject. When RequiredFacilityID is set every
// lecture block of the subject must take place in that facility.
type Subject struct {
	ID                 int64     `db:"id" json:"id"`
	OwnerID            int64     `db:"owner_id" json:"owner_id"`
	Name               string    `db:"name" json:"name"`
	Category           *string   `db:"category" json:"category,omitempty"`
	RequiredFacilityID *int64    `db:"required_facility_id" json:"required_facility_id,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
