package service

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

func newExportHarness(t *testing.T) (*ExportService, *memStore) {
	t.Helper()
	store := newMemStore()
	store.schedules[testSchedule] = &models.ScheduleMetadata{ID: testSchedule, OwnerID: testOwner, Name: "Semester 1", Version: 2}
	store.teachers = []models.Teacher{{ID: 7, OwnerID: testOwner, Name: "Budi"}}
	store.subjects = []models.Subject{{ID: 1, OwnerID: testOwner, Name: "Math"}, {ID: 2, OwnerID: testOwner, Name: "Chemistry"}}
	store.facilities = []models.Facility{{ID: 5, OwnerID: testOwner, Name: "Lab"}}
	store.groups = []models.LectureGroup{
		{ID: 1, ScheduleID: testSchedule, SubjectID: 1, TeacherID: 7, Grade: 10, ClassNum: intPtr(1), TotalCredits: 2},
		{ID: 2, ScheduleID: testSchedule, SubjectID: 2, TeacherID: 7, Grade: 11, TotalCredits: 1},
	}
	store.addBlock(models.LectureBlock{GroupID: 1, Day: "MON", Period: 1})
	store.addBlock(models.LectureBlock{GroupID: 2, Day: "TUE", Period: 2, RoomID: int64Ptr(5)})

	grids := func(ctx context.Context, ownerID int64) (timetable.Grid, error) {
		return timetable.NewGrid(5, 3)
	}
	svc := NewExportService(ExportStores{
		Schedules:  scheduleView{store},
		Blocks:     blockView{store},
		Teachers:   teacherView{store},
		Subjects:   subjectView{store},
		Facilities: facilityView{store},
	}, grids, zap.NewNop(), nil, nil, nil)
	return svc, store
}

func TestExportServiceCSV(t *testing.T) {
	svc, _ := newExportHarness(t)

	file, err := svc.ExportSchedule(context.Background(), testOwner, testSchedule, "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.Filename, "Semester_1_v2_"))
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Period,Class,Subject,Teacher,Room,Fixed", lines[0])
	assert.Equal(t, "MON,1,10-1,Math,Budi,,false", lines[1])
	assert.Equal(t, "TUE,2,11 (mixed),Chemistry,Budi,Lab,false", lines[2])
}

func TestExportServicePDF(t *testing.T) {
	svc, _ := newExportHarness(t)

	file, err := svc.ExportSchedule(context.Background(), testOwner, testSchedule, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestExportServiceXLSX(t *testing.T) {
	svc, _ := newExportHarness(t)

	file, err := svc.ExportSchedule(context.Background(), testOwner, testSchedule, "xlsx")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.Filename, ".xlsx"))

	book, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, []string{"class 10-1", "class 11 (mixed)"}, book.GetSheetList())

	rows, err := book.GetRows("class 11 (mixed)")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, []string{"Period", "MON", "TUE", "WED", "THU", "FRI"}, rows[0])
	assert.Equal(t, []string{"2", "", "Chemistry / Budi @ Lab"}, rows[2])
}

func TestExportServiceRejects(t *testing.T) {
	svc, _ := newExportHarness(t)

	_, err := svc.ExportSchedule(context.Background(), testOwner, testSchedule, "docx")
	requireAppError(t, err, "VALIDATION_ERROR", http.StatusBadRequest)

	_, err = svc.ExportSchedule(context.Background(), otherOwner, testSchedule, "csv")
	requireAppError(t, err, "NOT_FOUND", http.StatusNotFound)
}

func TestClassSheetsLayout(t *testing.T) {
	grid, err := timetable.NewGrid(2, 2)
	require.NoError(t, err)
	schedule := &models.ScheduleMetadata{Name: "S", Version: 1}
	names := exportNames{teachers: map[int64]string{7: "Budi"}, subjects: map[int64]string{1: "Math"}, rooms: map[int64]string{}}
	blocks := []models.LectureBlock{
		{Day: "TUE", Period: 2, TeacherID: 7, SubjectID: 1, Grade: 10, ClassNum: intPtr(2)},
		{Day: "MON", Period: 1, TeacherID: 7, SubjectID: 1, Grade: 10, ClassNum: intPtr(1)},
		{Day: "MON", Period: 2, TeacherID: 9, SubjectID: 3, Grade: 10},
	}

	sheets := classSheets(schedule, grid, blocks, names)
	require.Len(t, sheets, 3)
	assert.Equal(t, "S v1 - class 10-1", sheets[0].Title)
	assert.Equal(t, "S v1 - class 10-2", sheets[1].Title)
	assert.Equal(t, "S v1 - class 10 (mixed)", sheets[2].Title)
	assert.Equal(t, []string{"Period", "MON", "TUE"}, sheets[0].Headers)
	assert.Equal(t, [][]string{{"1", "Math / Budi", ""}, {"2", "", ""}}, sheets[0].Rows)
	assert.Equal(t, [][]string{{"1", "", ""}, {"2", "#3 / #9", ""}}, sheets[2].Rows)
}
