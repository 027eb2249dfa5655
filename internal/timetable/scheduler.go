package timetable

import (
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Options tunes the search. The zero value reproduces the reference behaviour:
// unbounded search and no per-day spreading of a group's occurrences.
type Options struct {
	// SpreadAcrossDays rejects a second occurrence of the same group on one day.
	SpreadAcrossDays bool
	// MaxSteps caps the number of tentative placements; 0 means unbounded.
	MaxSteps int
}

// Input is everything one scheduling run needs, loaded up front by the caller.
type Input struct {
	Grid     Grid
	Groups   []models.LectureGroup
	Subjects []models.Subject
	// Facilities, when non-nil, is used to verify every required facility id.
	Facilities []models.Facility
	Existing   []models.LectureBlock
	TimeOffs   []models.TeacherTimeOff
}

// Stats summarises a run.
type Stats struct {
	Tasks      int           `json:"tasks"`
	Steps      int           `json:"steps"`
	Backtracks int           `json:"backtracks"`
	Duration   time.Duration `json:"duration"`
}

// Result holds the new placements of a successful run.
type Result struct {
	Blocks []models.LectureBlock `json:"blocks"`
	Stats  Stats                 `json:"stats"`
}

// Scheduler fills the unscheduled credits of lecture groups by depth-first
// backtracking over the slot grid.
type Scheduler struct {
	opts   Options
	logger *zap.Logger
}

// NewScheduler constructs a scheduler.
func NewScheduler(opts Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxSteps < 0 {
		opts.MaxSteps = 0
	}
	return &Scheduler{opts: opts, logger: logger}
}

// AutoSchedule returns one new block per missing credit, or an error wrapping
// ErrSchedulingInfeasible when no complete assignment exists.
func (s *Scheduler) AutoSchedule(in Input) ([]models.LectureBlock, error) {
	res, err := s.Run(in)
	if err != nil {
		return nil, err
	}
	return res.Blocks, nil
}

// Run is AutoSchedule with search statistics.
func (s *Scheduler) Run(in Input) (*Result, error) {
	start := time.Now()
	if in.Grid.Size() == 0 {
		return nil, &ConfigurationError{Field: "grid", Value: 0, Reason: "grid has no slots"}
	}
	tasks, err := buildTasks(in)
	if err != nil {
		return nil, err
	}

	st := &search{
		slots:  in.Grid.Slots(),
		occ:    BuildOccupancy(in.TimeOffs, in.Existing),
		tasks:  tasks,
		placed: make([]models.LectureBlock, 0, len(tasks)),
		opts:   s.opts,
	}
	if s.opts.SpreadAcrossDays {
		st.groupDays = make(map[int64]map[string]struct{})
		for _, block := range in.Existing {
			st.markDay(block.GroupID, NormalizeDay(block.Day))
		}
	}

	s.logger.Debug("auto schedule started",
		zap.Int("tasks", len(tasks)),
		zap.Int("slots", len(st.slots)),
		zap.Int("existing_blocks", len(in.Existing)),
		zap.Int("time_offs", len(in.TimeOffs)),
	)

	ok := st.backtrack(0)
	stats := Stats{Tasks: len(tasks), Steps: st.steps, Backtracks: st.backtracks, Duration: time.Since(start)}
	if !ok {
		s.logger.Info("auto schedule infeasible",
			zap.Int("tasks", stats.Tasks),
			zap.Int("steps", stats.Steps),
			zap.Bool("budget_exceeded", st.budgetExceeded),
			zap.Duration("duration", stats.Duration),
		)
		return nil, &InfeasibleError{Tasks: stats.Tasks, Steps: stats.Steps, BudgetExceeded: st.budgetExceeded}
	}

	s.logger.Info("auto schedule completed",
		zap.Int("tasks", stats.Tasks),
		zap.Int("steps", stats.Steps),
		zap.Int("backtracks", stats.Backtracks),
		zap.Duration("duration", stats.Duration),
	)
	return &Result{Blocks: st.placed, Stats: stats}, nil
}

type task struct {
	group  models.LectureGroup
	roomID *int64
}

// buildTasks expands every group into one task per missing credit, in group order.
func buildTasks(in Input) ([]task, error) {
	subjects := make(map[int64]models.Subject, len(in.Subjects))
	for _, subject := range in.Subjects {
		subjects[subject.ID] = subject
	}
	var facilities map[int64]struct{}
	if in.Facilities != nil {
		facilities = make(map[int64]struct{}, len(in.Facilities))
		for _, facility := range in.Facilities {
			facilities[facility.ID] = struct{}{}
		}
	}
	placed := make(map[int64]int, len(in.Groups))
	for _, block := range in.Existing {
		placed[block.GroupID]++
	}

	var tasks []task
	for _, group := range in.Groups {
		subject, ok := subjects[group.SubjectID]
		if !ok {
			return nil, &InvalidInputError{Entity: "lecture group", ID: group.ID, Reason: "references unknown subject"}
		}
		roomID := subject.RequiredFacilityID
		if roomID != nil && facilities != nil {
			if _, ok := facilities[*roomID]; !ok {
				return nil, &InvalidInputError{Entity: "subject", ID: subject.ID, Reason: "requires unknown facility"}
			}
		}
		needed := group.TotalCredits - placed[group.ID]
		for i := 0; i < needed; i++ {
			tasks = append(tasks, task{group: group, roomID: roomID})
		}
	}
	return tasks, nil
}

type search struct {
	slots     []Slot
	occ       *Occupancy
	tasks     []task
	placed    []models.LectureBlock
	groupDays map[int64]map[string]struct{}
	opts      Options

	steps          int
	backtracks     int
	budgetExceeded bool
}

func (st *search) backtrack(index int) bool {
	if index == len(st.tasks) {
		return true
	}
	t := st.tasks[index]
	for _, slot := range st.slots {
		if !st.occ.IsFree(t.group, slot.Day, slot.Period, t.roomID) {
			continue
		}
		if st.groupDays != nil && st.hasDay(t.group.ID, slot.Day) {
			continue
		}
		if st.opts.MaxSteps > 0 && st.steps >= st.opts.MaxSteps {
			st.budgetExceeded = true
			return false
		}
		st.steps++

		st.occ.Mark(t.group, slot.Day, slot.Period, t.roomID)
		st.placed = append(st.placed, newBlock(t, slot))
		if st.groupDays != nil {
			st.markDay(t.group.ID, slot.Day)
		}

		if st.backtrack(index + 1) {
			return true
		}

		st.backtracks++
		st.placed = st.placed[:len(st.placed)-1]
		st.occ.Unmark(t.group, slot.Day, slot.Period, t.roomID)
		if st.groupDays != nil {
			delete(st.groupDays[t.group.ID], slot.Day)
		}
		if st.budgetExceeded {
			return false
		}
	}
	return false
}

func (st *search) hasDay(groupID int64, day string) bool {
	_, ok := st.groupDays[groupID][day]
	return ok
}

func (st *search) markDay(groupID int64, day string) {
	days := st.groupDays[groupID]
	if days == nil {
		days = make(map[string]struct{})
		st.groupDays[groupID] = days
	}
	days[day] = struct{}{}
}

func newBlock(t task, slot Slot) models.LectureBlock {
	var roomID *int64
	if t.roomID != nil {
		roomID = int64Ptr(*t.roomID)
	}
	block := models.LectureBlock{
		Day:     slot.Day,
		Period:  slot.Period,
		RoomID:  roomID,
		IsFixed: false,
	}
	return block.WithGroup(t.group)
}
