package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func strPtr(v string) *string { return &v }

func TestCheckPlacementDetectsTeacherAndRoomConflicts(t *testing.T) {
	checker := NewChecker(0)
	candidate := &models.LectureGroup{ID: 1, TeacherID: 10, Grade: 1, ClassNum: intPtr(1)}
	existing := []models.LectureBlock{
		{ID: 100, GroupID: 2, TeacherID: 10, Day: "MON", Period: 1},
		{ID: 101, GroupID: 3, TeacherID: 11, Day: "MON", Period: 1, RoomID: int64Ptr(5)},
		{ID: 102, GroupID: 4, TeacherID: 10, Day: "MON", Period: 2},
	}

	res := checker.CheckPlacement(candidate, "MON", 1, int64Ptr(5), existing)

	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, ViolationDoubleBookingTeacher, res.Errors[0].Type)
	assert.Equal(t, []int64{100}, res.Errors[0].BlockIDs)
	assert.Equal(t, int64(10), *res.Errors[0].TeacherID)
	assert.Equal(t, "MON", res.Errors[0].Day)
	assert.Equal(t, 1, res.Errors[0].Period)
	assert.Equal(t, ViolationDoubleBookingRoom, res.Errors[1].Type)
	assert.Equal(t, []int64{101}, res.Errors[1].BlockIDs)
	assert.Equal(t, int64(5), *res.Errors[1].RoomID)
	assert.Empty(t, res.Warnings)
}

func TestCheckPlacementValidSlot(t *testing.T) {
	checker := NewChecker(4)
	candidate := &models.LectureGroup{ID: 1, TeacherID: 10}
	existing := []models.LectureBlock{{ID: 100, TeacherID: 10, Day: "MON", Period: 1, RoomID: int64Ptr(5)}}

	res := checker.CheckPlacement(candidate, "mon", 2, int64Ptr(5), existing)

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.NotNil(t, res.Errors)
}

func TestCheckPlacementDailyLoadWarning(t *testing.T) {
	checker := NewChecker(0)
	candidate := &models.LectureGroup{ID: 1, TeacherID: 10}
	var existing []models.LectureBlock
	for p := 1; p <= 4; p++ {
		existing = append(existing, models.LectureBlock{ID: int64(p), TeacherID: 10, Day: "TUE", Period: p})
	}
	existing = append(existing, models.LectureBlock{ID: 9, TeacherID: 10, Day: "WED", Period: 1})

	res := checker.CheckPlacement(candidate, "TUE", 5, nil, existing)
	assert.True(t, res.IsValid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "4 blocks on TUE")

	below := checker.CheckPlacement(candidate, "TUE", 5, nil, existing[:3])
	assert.Empty(t, below.Warnings)
}

func TestCheckPlacementUnknownGroup(t *testing.T) {
	res := NewChecker(0).CheckPlacement(nil, "MON", 1, nil, nil)

	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ViolationInvalidGroup, res.Errors[0].Type)
}

func TestCheckPlacementWithTimeOff(t *testing.T) {
	checker := NewChecker(0)
	candidate := &models.LectureGroup{ID: 1, TeacherID: 10}
	offs := []models.TeacherTimeOff{{TeacherID: 10, Day: "FRI", Period: 3, Reason: strPtr("training")}}

	res := checker.CheckPlacementWithTimeOff(candidate, "FRI", 3, nil, nil, offs)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ViolationTimeOff, res.Errors[0].Type)
	assert.Equal(t, "training", *res.Errors[0].Reason)

	plain := checker.CheckPlacement(candidate, "FRI", 3, nil, nil)
	assert.True(t, plain.IsValid)
}

func TestValidateScheduleTeacherConflictWithDifferentRooms(t *testing.T) {
	blocks := []models.LectureBlock{
		{ID: 1, GroupID: 1, TeacherID: 1, Day: "MON", Period: 1, RoomID: int64Ptr(1)},
		{ID: 2, GroupID: 2, TeacherID: 1, Day: "MON", Period: 1, RoomID: int64Ptr(2)},
	}

	res := NewChecker(0).ValidateSchedule(blocks, nil)

	assert.False(t, res.IsValid)
	assert.Equal(t, 1, res.Count(ViolationDoubleBookingTeacher))
	assert.Zero(t, res.Count(ViolationDoubleBookingRoom))
	assert.ElementsMatch(t, []int64{1, 2}, res.Errors[0].BlockIDs)
	assert.Empty(t, res.Warnings)
}

func TestValidateScheduleReportsEveryPair(t *testing.T) {
	blocks := []models.LectureBlock{
		{ID: 1, TeacherID: 1, Day: "MON", Period: 1, RoomID: int64Ptr(9)},
		{ID: 2, TeacherID: 2, Day: "MON", Period: 1, RoomID: int64Ptr(9)},
		{ID: 3, TeacherID: 3, Day: "MON", Period: 1, RoomID: int64Ptr(9)},
	}

	res := NewChecker(0).ValidateSchedule(blocks, nil)

	require.Equal(t, 3, res.Count(ViolationDoubleBookingRoom))
	pairs := make([][]int64, 0, 3)
	for _, v := range res.Errors {
		pairs = append(pairs, v.BlockIDs)
	}
	assert.ElementsMatch(t, [][]int64{{1, 2}, {1, 3}, {2, 3}}, pairs)
}

func TestValidateScheduleTimeOff(t *testing.T) {
	blocks := []models.LectureBlock{
		{ID: 1, TeacherID: 1, Day: "TUE", Period: 2},
		{ID: 2, TeacherID: 2, Day: "TUE", Period: 2},
	}
	offs := []models.TeacherTimeOff{{TeacherID: 1, Day: "TUE", Period: 2, Reason: strPtr("childcare")}}

	res := NewChecker(0).ValidateSchedule(blocks, offs)

	require.Len(t, res.Errors, 1)
	v := res.Errors[0]
	assert.Equal(t, ViolationTimeOff, v.Type)
	assert.Equal(t, []int64{1}, v.BlockIDs)
	assert.Contains(t, v.Description, "childcare")
}

func TestValidateScheduleCleanSchedule(t *testing.T) {
	blocks := []models.LectureBlock{
		{ID: 1, TeacherID: 1, Day: "MON", Period: 1, RoomID: int64Ptr(1)},
		{ID: 2, TeacherID: 2, Day: "MON", Period: 1, RoomID: int64Ptr(2)},
		{ID: 3, TeacherID: 1, Day: "MON", Period: 2, RoomID: int64Ptr(1)},
	}

	res := NewChecker(0).ValidateSchedule(blocks, nil)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}
