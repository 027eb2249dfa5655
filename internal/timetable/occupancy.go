package timetable

import "github.com/noah-isme/sma-timetable-api/internal/models"

type teacherKey struct {
	teacherID int64
	day       string
	period    int
}

type classKey struct {
	grade    int
	classNum int
	day      string
	period   int
}

type roomKey struct {
	roomID int64
	day    string
	period int
}

// Occupancy indexes booked (resource, day, period) tuples for one scheduling
// run. It is rebuilt from persisted blocks and time-offs for every run and must
// not be shared between concurrent runs.
type Occupancy struct {
	teacherBusy map[teacherKey]struct{}
	classBusy   map[classKey]struct{}
	roomBusy    map[roomKey]struct{}
}

// NewOccupancy returns an empty tracker.
func NewOccupancy() *Occupancy {
	return &Occupancy{
		teacherBusy: make(map[teacherKey]struct{}),
		classBusy:   make(map[classKey]struct{}),
		roomBusy:    make(map[roomKey]struct{}),
	}
}

// BuildOccupancy seeds a tracker with teacher time-offs and existing blocks.
func BuildOccupancy(timeOffs []models.TeacherTimeOff, blocks []models.LectureBlock) *Occupancy {
	occ := NewOccupancy()
	for _, off := range timeOffs {
		occ.BlockTeacher(off.TeacherID, NormalizeDay(off.Day), off.Period)
	}
	for _, block := range blocks {
		occ.MarkBlock(block)
	}
	return occ
}

// BlockTeacher marks a teacher unavailable at day/period. Time-offs go through
// here so that IsFree covers blackouts and collisions with one lookup.
func (o *Occupancy) BlockTeacher(teacherID int64, day string, period int) {
	o.teacherBusy[teacherKey{teacherID, day, period}] = struct{}{}
}

// Mark books the teacher, the class (when the group has one) and the room
// (when roomID is set).
func (o *Occupancy) Mark(group models.LectureGroup, day string, period int, roomID *int64) {
	o.teacherBusy[teacherKey{group.TeacherID, day, period}] = struct{}{}
	if group.ClassNum != nil {
		o.classBusy[classKey{group.Grade, *group.ClassNum, day, period}] = struct{}{}
	}
	if roomID != nil {
		o.roomBusy[roomKey{*roomID, day, period}] = struct{}{}
	}
}

// MarkBlock books an already placed block using its joined group attributes.
func (o *Occupancy) MarkBlock(block models.LectureBlock) {
	group := models.LectureGroup{ID: block.GroupID, TeacherID: block.TeacherID, Grade: block.Grade, ClassNum: block.ClassNum}
	o.Mark(group, NormalizeDay(block.Day), block.Period, block.RoomID)
}

// Unmark removes the tuples Mark inserted. Removing an absent tuple is a no-op,
// which keeps rollback during backtracking safe.
func (o *Occupancy) Unmark(group models.LectureGroup, day string, period int, roomID *int64) {
	delete(o.teacherBusy, teacherKey{group.TeacherID, day, period})
	if group.ClassNum != nil {
		delete(o.classBusy, classKey{group.Grade, *group.ClassNum, day, period})
	}
	if roomID != nil {
		delete(o.roomBusy, roomKey{*roomID, day, period})
	}
}

// IsFree reports whether none of the tuples Mark would insert are booked.
func (o *Occupancy) IsFree(group models.LectureGroup, day string, period int, roomID *int64) bool {
	if _, busy := o.teacherBusy[teacherKey{group.TeacherID, day, period}]; busy {
		return false
	}
	if group.ClassNum != nil {
		if _, busy := o.classBusy[classKey{group.Grade, *group.ClassNum, day, period}]; busy {
			return false
		}
	}
	if roomID != nil {
		if _, busy := o.roomBusy[roomKey{*roomID, day, period}]; busy {
			return false
		}
	}
	return true
}

// Len returns the number of booked teacher, class and room tuples.
func (o *Occupancy) Len() (teachers, classes, rooms int) {
	return len(o.teacherBusy), len(o.classBusy), len(o.roomBusy)
}
