package timetable

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// DefaultDailyLoadThreshold is the same-day block count at which a teacher
// load warning is raised.
const DefaultDailyLoadThreshold = 4

// Checker evaluates hard constraints for single placements and whole schedules.
// A Checker holds no mutable state and is safe for concurrent use.
type Checker struct {
	DailyLoadThreshold int
}

// NewChecker returns a checker; a non-positive threshold falls back to the default.
func NewChecker(dailyLoadThreshold int) *Checker {
	if dailyLoadThreshold <= 0 {
		dailyLoadThreshold = DefaultDailyLoadThreshold
	}
	return &Checker{DailyLoadThreshold: dailyLoadThreshold}
}

// CheckPlacement validates placing candidate at day/period (and roomID when set)
// against existing blocks, before the placement is committed. A nil candidate
// stands for an unknown lecture group.
func (c *Checker) CheckPlacement(candidate *models.LectureGroup, day string, period int, roomID *int64, existing []models.LectureBlock) ValidationResult {
	return c.checkPlacement(candidate, NormalizeDay(day), period, roomID, existing, nil)
}

// CheckPlacementWithTimeOff behaves like CheckPlacement and additionally rejects
// a slot blacked out for the candidate's teacher.
func (c *Checker) CheckPlacementWithTimeOff(candidate *models.LectureGroup, day string, period int, roomID *int64, existing []models.LectureBlock, timeOffs []models.TeacherTimeOff) ValidationResult {
	return c.checkPlacement(candidate, NormalizeDay(day), period, roomID, existing, timeOffs)
}

func (c *Checker) checkPlacement(candidate *models.LectureGroup, day string, period int, roomID *int64, existing []models.LectureBlock, timeOffs []models.TeacherTimeOff) ValidationResult {
	if candidate == nil {
		return newResult([]Violation{{
			Type:        ViolationInvalidGroup,
			Description: "invalid group: lecture group not found",
			BlockIDs:    []int64{},
			Day:         day,
			Period:      period,
		}}, nil)
	}

	var errs []Violation
	var teacherConflict, roomConflict *models.LectureBlock
	dailyCount := 0
	for i := range existing {
		block := &existing[i]
		blockDay := NormalizeDay(block.Day)
		if block.TeacherID == candidate.TeacherID && blockDay == day {
			dailyCount++
		}
		if blockDay != day || block.Period != period {
			continue
		}
		if teacherConflict == nil && block.TeacherID == candidate.TeacherID {
			teacherConflict = block
		}
		if roomConflict == nil && roomID != nil && block.RoomID != nil && *block.RoomID == *roomID {
			roomConflict = block
		}
	}

	if teacherConflict != nil {
		errs = append(errs, Violation{
			Type:        ViolationDoubleBookingTeacher,
			Description: fmt.Sprintf("teacher %d already teaches at %s period %d", candidate.TeacherID, day, period),
			BlockIDs:    []int64{teacherConflict.ID},
			TeacherID:   int64Ptr(candidate.TeacherID),
			Day:         day,
			Period:      period,
		})
	}
	if roomConflict != nil {
		errs = append(errs, Violation{
			Type:        ViolationDoubleBookingRoom,
			Description: fmt.Sprintf("room %d is already in use at %s period %d", *roomID, day, period),
			BlockIDs:    []int64{roomConflict.ID},
			RoomID:      int64Ptr(*roomID),
			Day:         day,
			Period:      period,
		})
	}
	for _, off := range timeOffs {
		if off.TeacherID != candidate.TeacherID || NormalizeDay(off.Day) != day || off.Period != period {
			continue
		}
		errs = append(errs, timeOffViolation(candidate.TeacherID, day, period, off.Reason, nil))
		break
	}

	var warnings []string
	if dailyCount >= c.threshold() {
		warnings = append(warnings, fmt.Sprintf("daily load: teacher %d already has %d blocks on %s", candidate.TeacherID, dailyCount, day))
	}
	return newResult(errs, warnings)
}

// ValidateSchedule audits every block of one schedule version. Each pair of
// blocks sharing a teacher or a room in the same slot is reported once, and
// every block falling on a teacher time-off is reported. No warnings are
// computed here.
func (c *Checker) ValidateSchedule(blocks []models.LectureBlock, timeOffs []models.TeacherTimeOff) ValidationResult {
	var errs []Violation

	byTeacher := make(map[teacherKey][]*models.LectureBlock)
	byRoom := make(map[roomKey][]*models.LectureBlock)
	for i := range blocks {
		block := &blocks[i]
		day := NormalizeDay(block.Day)

		tKey := teacherKey{block.TeacherID, day, block.Period}
		for _, prior := range byTeacher[tKey] {
			errs = append(errs, Violation{
				Type:        ViolationDoubleBookingTeacher,
				Description: fmt.Sprintf("teacher %d is double booked at %s period %d", block.TeacherID, day, block.Period),
				BlockIDs:    []int64{prior.ID, block.ID},
				TeacherID:   int64Ptr(block.TeacherID),
				Day:         day,
				Period:      block.Period,
			})
		}
		byTeacher[tKey] = append(byTeacher[tKey], block)

		if block.RoomID == nil {
			continue
		}
		rKey := roomKey{*block.RoomID, day, block.Period}
		for _, prior := range byRoom[rKey] {
			errs = append(errs, Violation{
				Type:        ViolationDoubleBookingRoom,
				Description: fmt.Sprintf("room %d is double booked at %s period %d", *block.RoomID, day, block.Period),
				BlockIDs:    []int64{prior.ID, block.ID},
				RoomID:      int64Ptr(*block.RoomID),
				Day:         day,
				Period:      block.Period,
			})
		}
		byRoom[rKey] = append(byRoom[rKey], block)
	}

	offs := make(map[teacherKey]*string, len(timeOffs))
	for _, off := range timeOffs {
		offs[teacherKey{off.TeacherID, NormalizeDay(off.Day), off.Period}] = off.Reason
	}
	for _, block := range blocks {
		day := NormalizeDay(block.Day)
		reason, blocked := offs[teacherKey{block.TeacherID, day, block.Period}]
		if !blocked {
			continue
		}
		errs = append(errs, timeOffViolation(block.TeacherID, day, block.Period, reason, []int64{block.ID}))
	}

	return newResult(errs, nil)
}

func (c *Checker) threshold() int {
	if c == nil || c.DailyLoadThreshold <= 0 {
		return DefaultDailyLoadThreshold
	}
	return c.DailyLoadThreshold
}

func timeOffViolation(teacherID int64, day string, period int, reason *string, blockIDs []int64) Violation {
	desc := fmt.Sprintf("teacher %d has time off at %s period %d", teacherID, day, period)
	if reason != nil && *reason != "" {
		desc = fmt.Sprintf("%s (%s)", desc, *reason)
	}
	if blockIDs == nil {
		blockIDs = []int64{}
	}
	return Violation{
		Type:        ViolationTimeOff,
		Description: desc,
		BlockIDs:    blockIDs,
		TeacherID:   int64Ptr(teacherID),
		Day:         day,
		Period:      period,
		Reason:      reason,
	}
}
