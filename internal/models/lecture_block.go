package models

import "time"

// LectureBlock is one concrete placement of a lecture group.
//
// ScheduleID, TeacherID, SubjectID, Grade and ClassNum are read-only copies of the owning
// group, filled by the repository join and by the scheduler so that conflict
// checks never need a second lookup.
type LectureBlock struct {
	ID        int64     `db:"id" json:"id"`
	GroupID   int64     `db:"group_id" json:"group_id"`
	Day       string    `db:"day" json:"day"`
	Period    int       `db:"period" json:"period"`
	RoomID    *int64    `db:"room_id" json:"room_id,omitempty"`
	IsFixed   bool      `db:"is_fixed" json:"is_fixed"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	ScheduleID int64 `db:"schedule_id" json:"schedule_id"`
	TeacherID  int64 `db:"teacher_id" json:"teacher_id"`
	SubjectID  int64 `db:"subject_id" json:"subject_id"`
	Grade      int   `db:"grade" json:"grade"`
	ClassNum   *int  `db:"class_num" json:"class_num,omitempty"`
}

// WithGroup copies the scheduling attributes of group onto the block.
func (b LectureBlock) WithGroup(group LectureGroup) LectureBlock {
	b.GroupID = group.ID
	b.ScheduleID = group.ScheduleID
	b.TeacherID = group.TeacherID
	b.SubjectID = group.SubjectID
	b.Grade = group.Grade
	b.ClassNum = group.ClassNum
	return b
}
