package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// XLSXExporter renders datasets as a workbook, one worksheet per dataset.
type XLSXExporter struct{}

// NewXLSXExporter builds a workbook exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes each dataset to its own sheet with a bold header row.
func (e *XLSXExporter) Render(sheets ...Dataset) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one dataset")
	}
	for _, sheet := range sheets {
		if err := sheet.check(); err != nil {
			return nil, err
		}
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	used := make(map[string]bool, len(sheets))
	for i, sheet := range sheets {
		name := uniqueSheetName(sheet, i, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}

		headers := sheet.Headers
		if err := f.SetSheetRow(name, "A1", &headers); err != nil {
			return nil, fmt.Errorf("write headers: %w", err)
		}
		lastCol, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(name, "A1", lastCol, headerStyle); err != nil {
			return nil, fmt.Errorf("style headers: %w", err)
		}
		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			values := row
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return nil, fmt.Errorf("write row %d: %w", r, err)
			}
		}
		endCol, _ := excelize.ColumnNumberToName(len(headers))
		if err := f.SetColWidth(name, "A", endCol, 24); err != nil {
			return nil, fmt.Errorf("size columns: %w", err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// uniqueSheetName strips characters Excel forbids in tab names and truncates to 31 runes.
func uniqueSheetName(sheet Dataset, index int, used map[string]bool) string {
	raw := sheet.Sheet
	if raw == "" {
		raw = sheet.Title
	}
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(raw))
	name = strings.TrimSpace(truncateRunes(strings.Trim(name, "'"), maxSheetName))
	if name == "" {
		name = fmt.Sprintf("Sheet%d", index+1)
	}
	base := name
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(base, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}
