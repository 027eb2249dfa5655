package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	errStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

type lookup struct {
	teachers map[int64]string
	subjects map[int64]string
	rooms    map[int64]string
}

func (l lookup) name(set map[int64]string, id int64) string {
	if name, ok := set[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

type classKey struct {
	grade int
	class int
	mixed bool
}

func (k classKey) label() string {
	if k.mixed {
		return fmt.Sprintf("Grade %d (mixed)", k.grade)
	}
	return fmt.Sprintf("Class %d-%d", k.grade, k.class)
}

// renderGrids draws one weekly table per class, periods down and days across.
func renderGrids(grid timetable.Grid, blocks []models.LectureBlock, names lookup) string {
	byClass := make(map[classKey][]models.LectureBlock)
	for _, b := range blocks {
		key := classKey{grade: b.Grade, mixed: b.ClassNum == nil}
		if b.ClassNum != nil {
			key.class = *b.ClassNum
		}
		byClass[key] = append(byClass[key], b)
	}

	keys := make([]classKey, 0, len(byClass))
	for k := range byClass {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].grade != keys[j].grade {
			return keys[i].grade < keys[j].grade
		}
		if keys[i].mixed != keys[j].mixed {
			return !keys[i].mixed
		}
		return keys[i].class < keys[j].class
	})

	days := grid.Days()
	col := make(map[string]int, len(days))
	for i, d := range days {
		col[d] = i + 1
	}

	sections := make([]string, 0, len(keys))
	for _, key := range keys {
		rows := make([][]string, grid.PeriodsPerDay())
		for p := range rows {
			rows[p] = make([]string, len(days)+1)
			rows[p][0] = fmt.Sprintf("%d", p+1)
		}
		for _, b := range byClass[key] {
			c, ok := col[b.Day]
			if !ok || b.Period < 1 || b.Period > len(rows) {
				continue
			}
			cell := names.name(names.subjects, b.SubjectID) + " / " + names.name(names.teachers, b.TeacherID)
			if b.RoomID != nil {
				cell += " @ " + names.name(names.rooms, *b.RoomID)
			}
			if b.IsFixed {
				cell += " *"
			}
			if rows[b.Period-1][c] != "" {
				cell = rows[b.Period-1][c] + "; " + cell
			}
			rows[b.Period-1][c] = cell
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(mutedStyle).
			Headers(append([]string{"Period"}, days...)...).
			Rows(rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		sections = append(sections, lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(key.label()), t.String()))
	}
	return strings.Join(sections, "\n\n")
}

func renderSummary(stats timetable.Stats, placed int, report timetable.ValidationResult) string {
	lines := []string{
		mutedStyle.Render(fmt.Sprintf("tasks=%d steps=%d backtracks=%d duration=%s placed=%d",
			stats.Tasks, stats.Steps, stats.Backtracks, stats.Duration, placed)),
	}
	if report.IsValid {
		lines = append(lines, okStyle.Render("valid: no hard constraint violations"))
	} else {
		lines = append(lines, errStyle.Render(fmt.Sprintf("%d violation(s)", len(report.Errors))))
		for _, v := range report.Errors {
			lines = append(lines, errStyle.Render("  "+string(v.Type)+": ")+v.Description)
		}
	}
	for _, w := range report.Warnings {
		lines = append(lines, mutedStyle.Render("  warning: "+w))
	}
	return strings.Join(lines, "\n")
}
