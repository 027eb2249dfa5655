// Package timetable contains the slot assignment and conflict detection core
// used by the scheduling services. It performs no I/O: callers load entities,
// hand them in, and persist whatever comes back.
package timetable

import (
	"fmt"
	"strings"
)

// DayLabels lists the supported weekdays in grid order.
var DayLabels = []string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

// Slot is one (day, period) cell of the weekly grid. Periods are 1-based.
type Slot struct {
	Day    string `json:"day"`
	Period int    `json:"period"`
}

func (s Slot) String() string {
	return fmt.Sprintf("%s-%d", s.Day, s.Period)
}

// Grid is the ordered set of valid slots for a school week.
type Grid struct {
	days    []string
	periods int
}

// NewGrid builds a grid of daysPerWeek days (MON first) and periodsPerDay periods.
func NewGrid(daysPerWeek, periodsPerDay int) (Grid, error) {
	if daysPerWeek < 1 || daysPerWeek > len(DayLabels) {
		return Grid{}, &ConfigurationError{Field: "days_per_week", Value: daysPerWeek, Reason: fmt.Sprintf("must be between 1 and %d", len(DayLabels))}
	}
	if periodsPerDay < 1 {
		return Grid{}, &ConfigurationError{Field: "periods_per_day", Value: periodsPerDay, Reason: "must be positive"}
	}
	days := make([]string, daysPerWeek)
	copy(days, DayLabels[:daysPerWeek])
	return Grid{days: days, periods: periodsPerDay}, nil
}

// Days returns the day labels of the grid in order.
func (g Grid) Days() []string {
	out := make([]string, len(g.days))
	copy(out, g.days)
	return out
}

// PeriodsPerDay returns the number of periods in each day.
func (g Grid) PeriodsPerDay() int {
	return g.periods
}

// Size is the number of slots in the grid.
func (g Grid) Size() int {
	return len(g.days) * g.periods
}

// Slots enumerates the grid day-major, then by ascending period.
func (g Grid) Slots() []Slot {
	slots := make([]Slot, 0, g.Size())
	for _, day := range g.days {
		for period := 1; period <= g.periods; period++ {
			slots = append(slots, Slot{Day: day, Period: period})
		}
	}
	return slots
}

// Contains reports whether day/period lies inside the grid.
func (g Grid) Contains(day string, period int) bool {
	if period < 1 || period > g.periods {
		return false
	}
	for _, d := range g.days {
		if d == day {
			return true
		}
	}
	return false
}

// NormalizeDay upper-cases and trims a day label, accepting full English names
// ("monday") as well as the three letter form.
func NormalizeDay(raw string) string {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if len(value) > 3 {
		for _, label := range DayLabels {
			if strings.HasPrefix(value, label) {
				return label
			}
		}
	}
	return value
}
