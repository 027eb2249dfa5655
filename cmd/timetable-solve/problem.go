package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

// problem is the offline description of one school week.
type problem struct {
	Grid struct {
		Days    int `yaml:"days"`
		Periods int `yaml:"periods"`
	} `yaml:"grid"`
	Options struct {
		SpreadAcrossDays   bool `yaml:"spread_across_days"`
		MaxSteps           int  `yaml:"max_steps"`
		DailyLoadThreshold int  `yaml:"daily_load_threshold"`
	} `yaml:"options"`
	Teachers   []namedEntry    `yaml:"teachers"`
	Facilities []facilityEntry `yaml:"facilities"`
	Subjects   []subjectEntry  `yaml:"subjects"`
	Groups     []groupEntry    `yaml:"groups"`
	TimeOffs   []timeOffEntry  `yaml:"time_offs"`
	Fixed      []fixedEntry    `yaml:"fixed"`
}

type namedEntry struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

type facilityEntry struct {
	ID       int64  `yaml:"id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Capacity int    `yaml:"capacity"`
}

type subjectEntry struct {
	ID                 int64  `yaml:"id"`
	Name               string `yaml:"name"`
	RequiredFacilityID *int64 `yaml:"required_facility_id"`
}

type groupEntry struct {
	ID           int64 `yaml:"id"`
	SubjectID    int64 `yaml:"subject_id"`
	TeacherID    int64 `yaml:"teacher_id"`
	Grade        int   `yaml:"grade"`
	ClassNum     *int  `yaml:"class_num"`
	TotalCredits int   `yaml:"total_credits"`
}

type timeOffEntry struct {
	TeacherID int64   `yaml:"teacher_id"`
	Day       string  `yaml:"day"`
	Period    int     `yaml:"period"`
	Reason    *string `yaml:"reason"`
}

type fixedEntry struct {
	GroupID int64  `yaml:"group_id"`
	Day     string `yaml:"day"`
	Period  int    `yaml:"period"`
	RoomID  *int64 `yaml:"room_id"`
}

func loadProblem(path string) (*problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseProblem(data)
}

func parseProblem(data []byte) (*problem, error) {
	var p problem
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse problem: %w", err)
	}
	if len(p.Groups) == 0 {
		return nil, fmt.Errorf("problem declares no groups")
	}
	return &p, nil
}

// input converts the file into solver input. Fixed placements become existing
// blocks carrying their group's attributes.
func (p *problem) input() (timetable.Input, error) {
	grid, err := timetable.NewGrid(p.Grid.Days, p.Grid.Periods)
	if err != nil {
		return timetable.Input{}, err
	}

	in := timetable.Input{Grid: grid}
	for _, f := range p.Facilities {
		kind := models.FacilityTypeNormal
		if f.Type != "" {
			kind = models.FacilityType(f.Type)
		}
		in.Facilities = append(in.Facilities, models.Facility{ID: f.ID, Name: f.Name, Type: kind, Capacity: f.Capacity})
	}
	for _, s := range p.Subjects {
		in.Subjects = append(in.Subjects, models.Subject{ID: s.ID, Name: s.Name, RequiredFacilityID: s.RequiredFacilityID})
	}

	groups := make(map[int64]models.LectureGroup, len(p.Groups))
	for _, g := range p.Groups {
		group := models.LectureGroup{
			ID:           g.ID,
			SubjectID:    g.SubjectID,
			TeacherID:    g.TeacherID,
			Grade:        g.Grade,
			ClassNum:     g.ClassNum,
			TotalCredits: g.TotalCredits,
		}
		if _, dup := groups[g.ID]; dup {
			return timetable.Input{}, fmt.Errorf("group %d declared twice", g.ID)
		}
		groups[g.ID] = group
		in.Groups = append(in.Groups, group)
	}

	for i, off := range p.TimeOffs {
		day := timetable.NormalizeDay(off.Day)
		if !grid.Contains(day, off.Period) {
			return timetable.Input{}, fmt.Errorf("time_offs[%d]: %s/%d is outside the grid", i, off.Day, off.Period)
		}
		in.TimeOffs = append(in.TimeOffs, models.TeacherTimeOff{TeacherID: off.TeacherID, Day: day, Period: off.Period, Reason: off.Reason})
	}

	for i, fixed := range p.Fixed {
		group, ok := groups[fixed.GroupID]
		if !ok {
			return timetable.Input{}, fmt.Errorf("fixed[%d]: unknown group %d", i, fixed.GroupID)
		}
		day := timetable.NormalizeDay(fixed.Day)
		if !grid.Contains(day, fixed.Period) {
			return timetable.Input{}, fmt.Errorf("fixed[%d]: %s/%d is outside the grid", i, fixed.Day, fixed.Period)
		}
		block := models.LectureBlock{ID: int64(i + 1), Day: day, Period: fixed.Period, RoomID: fixed.RoomID, IsFixed: true}
		in.Existing = append(in.Existing, block.WithGroup(group))
	}
	return in, nil
}

func (p *problem) names() lookup {
	l := lookup{teachers: map[int64]string{}, subjects: map[int64]string{}, rooms: map[int64]string{}}
	for _, t := range p.Teachers {
		l.teachers[t.ID] = t.Name
	}
	for _, s := range p.Subjects {
		l.subjects[s.ID] = s.Name
	}
	for _, f := range p.Facilities {
		l.rooms[f.ID] = f.Name
	}
	return l
}
