package timetable

// ViolationType names a hard constraint violation.
type ViolationType string

const (
	ViolationDoubleBookingTeacher ViolationType = "DOUBLE_BOOKING_TEACHER"
	ViolationDoubleBookingRoom    ViolationType = "DOUBLE_BOOKING_ROOM"
	ViolationTimeOff              ViolationType = "CONSTRAINT_VIOLATION_TIME_OFF"
	ViolationInvalidGroup         ViolationType = "INVALID_GROUP"
)

// Violation describes one hard constraint failure. BlockIDs holds zero, one or
// two conflicting block identifiers; an unsaved candidate is never listed.
type Violation struct {
	Type        ViolationType `json:"type"`
	Description string        `json:"description"`
	BlockIDs    []int64       `json:"block_ids"`
	TeacherID   *int64        `json:"teacher_id,omitempty"`
	RoomID      *int64        `json:"room_id,omitempty"`
	Day         string        `json:"day,omitempty"`
	Period      int           `json:"period,omitempty"`
	Reason      *string       `json:"reason,omitempty"`
}

// ValidationResult is returned by both checker entry points. Conflicts are
// ordinary output here, never errors.
type ValidationResult struct {
	IsValid  bool        `json:"is_valid"`
	Errors   []Violation `json:"errors"`
	Warnings []string    `json:"warnings"`
}

// Count returns the number of violations of the given type.
func (r ValidationResult) Count(kind ViolationType) int {
	n := 0
	for _, v := range r.Errors {
		if v.Type == kind {
			n++
		}
	}
	return n
}

func newResult(errs []Violation, warnings []string) ValidationResult {
	if errs == nil {
		errs = []Violation{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs, Warnings: warnings}
}

func int64Ptr(v int64) *int64 {
	return &v
}
