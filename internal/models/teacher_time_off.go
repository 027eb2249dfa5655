package models

import "time"

// TeacherTimeOff is a hard blackout of one (teacher, day, period) triple.
type TeacherTimeOff struct {
	ID        int64     `db:"id" json:"id"`
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	TeacherID int64     `db:"teacher_id" json:"teacher_id"`
	Day       string    `db:"day" json:"day"`
	Period    int       `db:"period" json:"period"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
