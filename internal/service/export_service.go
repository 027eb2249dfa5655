package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
	ExportFormatXLSX = "xlsx"
)

type teacherCatalog interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Teacher, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type sheetRenderer interface {
	Render(sheets ...export.Dataset) ([]byte, error)
}

// ExportStores groups the lookups needed to render a version.
type ExportStores struct {
	Schedules  scheduleMetadataReader
	Blocks     auditBlockReader
	Teachers   teacherCatalog
	Subjects   subjectCatalog
	Facilities facilityCatalog
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders schedule versions as CSV listings, or as PDF and XLSX
// weekly grids with one page or sheet per class.
type ExportService struct {
	stores ExportStores
	grids  func(ctx context.Context, ownerID int64) (timetable.Grid, error)
	csv    csvRenderer
	pdf    sheetRenderer
	xlsx   sheetRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService. grids resolves the owner's slot grid.
func NewExportService(stores ExportStores, grids func(ctx context.Context, ownerID int64) (timetable.Grid, error), logger *zap.Logger, csv csvRenderer, pdf, xlsx sheetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewLandscapePDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	return &ExportService{
		stores: stores,
		grids:  grids,
		csv:    csv,
		pdf:    pdf,
		xlsx:   xlsx,
		logger: logger,
	}
}

// ExportSchedule renders a version in the requested format (csv when empty).
func (s *ExportService) ExportSchedule(ctx context.Context, ownerID, scheduleID int64, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF && format != ExportFormatXLSX {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %s", format))
	}

	schedule, err := s.stores.Schedules.FindByID(ctx, scheduleID)
	if err != nil || schedule.OwnerID != ownerID {
		if err == nil || isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	blocks, err := s.stores.Blocks.ListBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture blocks")
	}
	names, err := s.loadNames(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	file := &ExportFile{Filename: exportFilename(schedule, format)}
	switch format {
	case ExportFormatCSV:
		file.ContentType = "text/csv"
		file.Content, err = s.csv.Render(listingDataset(schedule, blocks, names))
	case ExportFormatPDF, ExportFormatXLSX:
		var grid timetable.Grid
		if grid, err = s.grids(ctx, ownerID); err != nil {
			return nil, err
		}
		sheets := classSheets(schedule, grid, blocks, names)
		if format == ExportFormatPDF {
			file.ContentType = "application/pdf"
			file.Content, err = s.pdf.Render(sheets...)
		} else {
			file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
			file.Content, err = s.xlsx.Render(sheets...)
		}
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule export")
	}

	s.logger.Info("schedule exported",
		zap.Int64("schedule_id", schedule.ID),
		zap.String("format", format),
		zap.Int("blocks", len(blocks)),
		zap.Int("bytes", len(file.Content)),
	)
	return file, nil
}

type exportNames struct {
	teachers map[int64]string
	subjects map[int64]string
	rooms    map[int64]string
}

func (n exportNames) teacher(id int64) string {
	if name, ok := n.teachers[id]; ok {
		return name
	}
	return "#" + strconv.FormatInt(id, 10)
}

func (n exportNames) subject(id int64) string {
	if name, ok := n.subjects[id]; ok {
		return name
	}
	return "#" + strconv.FormatInt(id, 10)
}

func (n exportNames) room(id *int64) string {
	if id == nil {
		return ""
	}
	if name, ok := n.rooms[*id]; ok {
		return name
	}
	return "#" + strconv.FormatInt(*id, 10)
}

func (s *ExportService) loadNames(ctx context.Context, ownerID int64) (exportNames, error) {
	names := exportNames{
		teachers: map[int64]string{},
		subjects: map[int64]string{},
		rooms:    map[int64]string{},
	}
	teachers, err := s.stores.Teachers.ListByOwner(ctx, ownerID)
	if err != nil {
		return names, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	for _, t := range teachers {
		names.teachers[t.ID] = t.Name
	}
	subjects, err := s.stores.Subjects.ListByOwner(ctx, ownerID)
	if err != nil {
		return names, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	for _, sub := range subjects {
		names.subjects[sub.ID] = sub.Name
	}
	facilities, err := s.stores.Facilities.ListByOwner(ctx, ownerID)
	if err != nil {
		return names, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facilities")
	}
	for _, f := range facilities {
		names.rooms[f.ID] = f.Name
	}
	return names, nil
}

func classLabel(grade int, classNum *int) string {
	if classNum == nil {
		return fmt.Sprintf("%d (mixed)", grade)
	}
	return fmt.Sprintf("%d-%d", grade, *classNum)
}

func listingDataset(schedule *models.ScheduleMetadata, blocks []models.LectureBlock, names exportNames) export.Dataset {
	rows := make([][]string, 0, len(blocks))
	for _, b := range blocks {
		rows = append(rows, []string{
			b.Day,
			strconv.Itoa(b.Period),
			classLabel(b.Grade, b.ClassNum),
			names.subject(b.SubjectID),
			names.teacher(b.TeacherID),
			names.room(b.RoomID),
			strconv.FormatBool(b.IsFixed),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("%s v%d", schedule.Name, schedule.Version),
		Headers: []string{"Day", "Period", "Class", "Subject", "Teacher", "Room", "Fixed"},
		Rows:    rows,
	}
}

// classSheets builds one weekly grid per class: periods down, days across.
func classSheets(schedule *models.ScheduleMetadata, grid timetable.Grid, blocks []models.LectureBlock, names exportNames) []export.Dataset {
	type classKey struct {
		grade int
		num   int
		mixed bool
	}
	cells := make(map[classKey]map[timetable.Slot][]string)
	var keys []classKey
	for _, b := range blocks {
		key := classKey{grade: b.Grade, mixed: b.ClassNum == nil}
		if b.ClassNum != nil {
			key.num = *b.ClassNum
		}
		if _, ok := cells[key]; !ok {
			cells[key] = make(map[timetable.Slot][]string)
			keys = append(keys, key)
		}
		text := names.subject(b.SubjectID) + " / " + names.teacher(b.TeacherID)
		if room := names.room(b.RoomID); room != "" {
			text += " @ " + room
		}
		slot := timetable.Slot{Day: b.Day, Period: b.Period}
		cells[key][slot] = append(cells[key][slot], text)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].grade != keys[j].grade {
			return keys[i].grade < keys[j].grade
		}
		if keys[i].mixed != keys[j].mixed {
			return !keys[i].mixed
		}
		return keys[i].num < keys[j].num
	})

	days := grid.Days()
	headers := append([]string{"Period"}, days...)
	title := fmt.Sprintf("%s v%d", schedule.Name, schedule.Version)
	if len(keys) == 0 {
		return []export.Dataset{{Title: title, Headers: headers}}
	}

	sheets := make([]export.Dataset, 0, len(keys))
	for _, key := range keys {
		var label string
		if key.mixed {
			label = classLabel(key.grade, nil)
		} else {
			num := key.num
			label = classLabel(key.grade, &num)
		}
		rows := make([][]string, 0, grid.PeriodsPerDay())
		for period := 1; period <= grid.PeriodsPerDay(); period++ {
			row := []string{strconv.Itoa(period)}
			for _, day := range days {
				row = append(row, strings.Join(cells[key][timetable.Slot{Day: day, Period: period}], "; "))
			}
			rows = append(rows, row)
		}
		sheets = append(sheets, export.Dataset{
			Title:   fmt.Sprintf("%s - class %s", title, label),
			Sheet:   "class " + label,
			Headers: headers,
			Rows:    rows,
		})
	}
	return sheets
}

func exportFilename(schedule *models.ScheduleMetadata, format string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_v%d_%s.%s", sanitizeFilename(schedule.Name), schedule.Version, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "schedule"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(strings.TrimSpace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
