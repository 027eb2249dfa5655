package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Day", "Period", "Subject"},
		Rows: [][]string{
			{"MON", "1", "Math"},
			{"MON", "2", "Physics, Lab"},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Day,Period,Subject\nMON,1,Math\nMON,2,\"Physics, Lab\"\n", string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{Headers: []string{"A", "B"}, Rows: [][]string{{"1"}}})
	require.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	sheets := []Dataset{
		{Title: "Class 10-1", Headers: []string{"Period", "MON", "TUE"}, Rows: [][]string{{"1", "Math", ""}, {"2", "", "A very long subject name that will not fit the column"}}},
		{Title: "Class 10-2", Headers: []string{"Period", "MON", "TUE"}, Rows: [][]string{{"1", "", "Biology"}}},
	}
	out, err := NewLandscapePDFExporter().Render(sheets...)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render()
	require.Error(t, err)
}

func TestXLSXExporterRender(t *testing.T) {
	sheets := []Dataset{
		{Title: "Timetable v1 - class 10-1", Sheet: "class 10-1", Headers: []string{"Period", "MON", "TUE"}, Rows: [][]string{{"1", "Math / Pak Budi", ""}, {"2", "", "Physics"}}},
		{Title: "Timetable v1 - class 10-2", Sheet: "class 10-1", Headers: []string{"Period", "MON", "TUE"}, Rows: [][]string{{"1", "", "Biology"}}},
		{Title: "a/very:long*title[that]exceeds the sheet limit", Headers: []string{"Period"}},
	}
	out, err := NewXLSXExporter().Render(sheets...)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer book.Close()

	names := book.GetSheetList()
	require.Len(t, names, 3)
	assert.Equal(t, "class 10-1", names[0])
	assert.Equal(t, "class 10-1 (2)", names[1])
	assert.Equal(t, "a-very-long-title-that-exceeds", names[2])

	rows, err := book.GetRows("class 10-1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Period", "MON", "TUE"}, rows[0])
	assert.Equal(t, []string{"1", "Math / Pak Budi"}, rows[1])
	assert.Equal(t, []string{"2", "", "Physics"}, rows[2])

	_, err = NewXLSXExporter().Render()
	require.Error(t, err)
}
