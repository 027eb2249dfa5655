package dto

import (
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

// CreateScheduleRequest opens a new schedule version.
type CreateScheduleRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Activate bool   `json:"activate"`
}

// CreateLectureGroupRequest defines one teaching assignment in a version.
type CreateLectureGroupRequest struct {
	SubjectID     int64   `json:"subject_id" validate:"required,min=1"`
	TeacherID     int64   `json:"teacher_id" validate:"required,min=1"`
	Grade         int     `json:"grade" validate:"required,min=1,max=12"`
	ClassNum      *int    `json:"class_num" validate:"omitempty,min=1"`
	TotalCredits  int     `json:"total_credits" validate:"required,min=1,max=49"`
	SlicingOption *string `json:"slicing_option" validate:"omitempty,max=32"`
}

// BatchLectureGroupRequest creates many groups atomically.
type BatchLectureGroupRequest struct {
	Groups []CreateLectureGroupRequest `json:"groups" validate:"required,min=1,max=500,dive"`
}

// CreateLectureBlockRequest places one block by hand.
type CreateLectureBlockRequest struct {
	GroupID int64  `json:"group_id" validate:"required,min=1"`
	Day     string `json:"day" validate:"required"`
	Period  int    `json:"period" validate:"required,min=1"`
	RoomID  *int64 `json:"room_id" validate:"omitempty,min=1"`
	IsFixed bool   `json:"is_fixed"`
}

// PlacementCheckRequest previews a placement without persisting it.
type PlacementCheckRequest struct {
	ScheduleID int64  `json:"schedule_id" validate:"required,min=1"`
	GroupID    int64  `json:"group_id" validate:"required,min=1"`
	Day        string `json:"day" validate:"required"`
	Period     int    `json:"period" validate:"required,min=1"`
	RoomID     *int64 `json:"room_id" validate:"omitempty,min=1"`
}

// AutoScheduleResponse returns the blocks persisted by a run.
type AutoScheduleResponse struct {
	ScheduleID int64                 `json:"schedule_id"`
	Created    []models.LectureBlock `json:"created"`
	Stats      timetable.Stats       `json:"stats"`
}

// ResetScheduleQuery selects what a reset removes.
type ResetScheduleQuery struct {
	IncludeGroups bool `form:"include_groups"`
}

// ResetScheduleResponse reports how many rows a reset removed.
type ResetScheduleResponse struct {
	ScheduleID    int64 `json:"schedule_id"`
	DeletedBlocks int64 `json:"deleted_blocks"`
	DeletedGroups int64 `json:"deleted_groups"`
}

// SchoolConfigurationRequest is the first wizard step.
type SchoolConfigurationRequest struct {
	SchoolName    string `json:"school_name" validate:"required,max=200"`
	DaysPerWeek   int    `json:"days_per_week" validate:"required,min=1,max=7"`
	PeriodsPerDay int    `json:"periods_per_day" validate:"required,min=1,max=16"`
	LunchPeriod   *int   `json:"lunch_period" validate:"omitempty,min=1"`
}

// CreateTeacherRequest registers a teacher.
type CreateTeacherRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CreateFacilityRequest registers a room.
type CreateFacilityRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Type     string `json:"type" validate:"omitempty,oneof=NORMAL SPECIAL"`
	Capacity int    `json:"capacity" validate:"omitempty,min=0"`
}

// CreateSubjectRequest registers a subject and its optional room requirement.
type CreateSubjectRequest struct {
	Name               string  `json:"name" validate:"required,max=120"`
	Category           *string `json:"category" validate:"omitempty,max=60"`
	RequiredFacilityID *int64  `json:"required_facility_id" validate:"omitempty,min=1"`
}

// TimeOffEntry blocks one teacher slot.
type TimeOffEntry struct {
	TeacherID int64   `json:"teacher_id" validate:"required,min=1"`
	Day       string  `json:"day" validate:"required"`
	Period    int     `json:"period" validate:"required,min=1"`
	Reason    *string `json:"reason" validate:"omitempty,max=200"`
}

// ReplaceTimeOffsRequest replaces every time-off row of the owner.
type ReplaceTimeOffsRequest struct {
	Entries []TimeOffEntry `json:"entries" validate:"dive"`
}

// ExportScheduleQuery selects the export format.
type ExportScheduleQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}
