package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is one table of export content. Every row must have one cell per header.
// Sheet is a short label for formats that cap tab names; Title is used when empty.
type Dataset struct {
	Title   string
	Sheet   string
	Headers []string
	Rows    [][]string
}

func (d Dataset) check() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset %q has no headers", d.Title)
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("dataset %q row %d has %d cells, want %d", d.Title, i, len(row), len(d.Headers))
		}
	}
	return nil
}

// CSVExporter renders a Dataset as CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header line followed by every row.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.check(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	if err := writer.WriteAll(data.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
