package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders one sheet's table and footer as CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV bytes with a UTF-8 BOM so spreadsheet apps pick the
// right encoding.
func (e *CSVExporter) Render(s Sheet) ([]byte, error) {
	if len(s.Table.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	buf.WriteString("\ufeff")
	writer := csv.NewWriter(buf)
	if err := writer.Write(s.Table.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, rows := range [][][]string{s.Table.Rows, s.Footer} {
		for _, row := range rows {
			if err := writer.Write(pad(row, len(s.Table.Headers))); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
