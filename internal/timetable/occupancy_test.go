package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func intPtr(v int) *int { return &v }

func TestOccupancyMarkAndIsFree(t *testing.T) {
	occ := NewOccupancy()
	room := int64Ptr(7)
	group := models.LectureGroup{ID: 1, TeacherID: 10, Grade: 1, ClassNum: intPtr(2)}

	assert.True(t, occ.IsFree(group, "MON", 1, room))
	occ.Mark(group, "MON", 1, room)
	assert.False(t, occ.IsFree(group, "MON", 1, nil))

	otherTeacherSameClass := models.LectureGroup{ID: 2, TeacherID: 11, Grade: 1, ClassNum: intPtr(2)}
	assert.False(t, occ.IsFree(otherTeacherSameClass, "MON", 1, nil))

	elective := models.LectureGroup{ID: 3, TeacherID: 12, Grade: 1}
	assert.True(t, occ.IsFree(elective, "MON", 1, nil))
	assert.False(t, occ.IsFree(elective, "MON", 1, room))

	teachers, classes, rooms := occ.Len()
	assert.Equal(t, 1, teachers)
	assert.Equal(t, 1, classes)
	assert.Equal(t, 1, rooms)
}

func TestOccupancyElectiveSkipsClassTuple(t *testing.T) {
	occ := NewOccupancy()
	occ.Mark(models.LectureGroup{TeacherID: 1, Grade: 2}, "TUE", 3, nil)

	teachers, classes, rooms := occ.Len()
	assert.Equal(t, 1, teachers)
	assert.Zero(t, classes)
	assert.Zero(t, rooms)
}

func TestOccupancyUnmarkIsIdempotent(t *testing.T) {
	occ := NewOccupancy()
	group := models.LectureGroup{TeacherID: 1, Grade: 1, ClassNum: intPtr(1)}
	other := models.LectureGroup{TeacherID: 2, Grade: 1, ClassNum: intPtr(3)}
	occ.Mark(group, "MON", 1, int64Ptr(4))
	occ.Mark(other, "MON", 1, nil)

	occ.Unmark(group, "MON", 1, int64Ptr(4))
	t1, c1, r1 := occ.Len()
	occ.Unmark(group, "MON", 1, int64Ptr(4))
	t2, c2, r2 := occ.Len()

	assert.Equal(t, []int{t1, c1, r1}, []int{t2, c2, r2})
	assert.True(t, occ.IsFree(group, "MON", 1, int64Ptr(4)))
	assert.False(t, occ.IsFree(other, "MON", 1, nil))
}

func TestBuildOccupancyLoadsTimeOffsAndBlocks(t *testing.T) {
	occ := BuildOccupancy(
		[]models.TeacherTimeOff{{TeacherID: 5, Day: "wednesday", Period: 2}},
		[]models.LectureBlock{{ID: 1, GroupID: 9, TeacherID: 6, Grade: 2, ClassNum: intPtr(1), Day: "MON", Period: 1, RoomID: int64Ptr(3)}},
	)

	assert.False(t, occ.IsFree(models.LectureGroup{TeacherID: 5}, "WED", 2, nil))
	assert.False(t, occ.IsFree(models.LectureGroup{TeacherID: 7, Grade: 2, ClassNum: intPtr(1)}, "MON", 1, nil))
	assert.False(t, occ.IsFree(models.LectureGroup{TeacherID: 7}, "MON", 1, int64Ptr(3)))
	assert.True(t, occ.IsFree(models.LectureGroup{TeacherID: 7, Grade: 2, ClassNum: intPtr(2)}, "MON", 1, nil))
}
