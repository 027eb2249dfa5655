package models

import "time"

// LectureGroup is one teaching assignment that needs TotalCredits weekly
// occurrences. A nil ClassNum marks an elective or mixed class that is exempt
// from class collision checks.
type LectureGroup struct {
	ID            int64     `db:"id" json:"id"`
	ScheduleID    int64     `db:"schedule_id" json:"schedule_id"`
	SubjectID     int64     `db:"subject_id" json:"subject_id"`
	TeacherID     int64     `db:"teacher_id" json:"teacher_id"`
	Grade         int       `db:"grade" json:"grade"`
	ClassNum      *int      `db:"class_num" json:"class_num,omitempty"`
	TotalCredits  int       `db:"total_credits" json:"total_credits"`
	SlicingOption *string   `db:"slicing_option" json:"slicing_option,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
