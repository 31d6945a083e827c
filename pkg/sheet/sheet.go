// Package sheet decodes onboarding uploads (xlsx or csv) into heading-keyed
// rows, keeping track of which cells the source stored as numbers.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxRows bounds the data rows accepted from one file.
const MaxRows = 5000

var (
	ErrNoHeader    = errors.New("sheet: header row not found")
	ErrTooManyRows = fmt.Errorf("sheet: more than %d data rows", MaxRows)
	ErrUnsupported = errors.New("sheet: unsupported file extension")

	reParenthetical = regexp.MustCompile(`\(.*?\)`)
	reHeadingSep    = regexp.MustCompile(`[^a-z0-9]+`)
)

// Cell is one raw value together with its stored kind.
type Cell struct {
	Value   string
	Numeric bool
}

// Row is one data row keyed by normalised heading. Number is the 1-based row
// number in the source file, header included.
type Row struct {
	Number int
	Cells  map[string]Cell
}

// Get returns the cell under key, or an empty cell.
func (r Row) Get(key string) Cell {
	return r.Cells[key]
}

// Text returns the trimmed text under key.
func (r Row) Text(key string) string {
	return r.Cells[key].Value
}

// Raw copies every cell value for failure reports.
func (r Row) Raw() map[string]string {
	out := make(map[string]string, len(r.Cells))
	for k, c := range r.Cells {
		out[k] = c.Value
	}
	return out
}

// Blank reports whether every cell is empty.
func (r Row) Blank() bool {
	for _, c := range r.Cells {
		if c.Value != "" {
			return false
		}
	}
	return true
}

// HeadingKey normalises a column heading: "Tanggal Lahir (YYYY-MM-DD)*"
// becomes "tanggal_lahir".
func HeadingKey(heading string) string {
	h := strings.ToLower(cleanText(heading))
	h = reParenthetical.ReplaceAllString(h, "")
	h = reHeadingSep.ReplaceAllString(h, "_")
	return strings.Trim(h, "_")
}

// Read decodes a file by extension.
func Read(filename string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(filename))
	}
}

// Supported reports whether Read can decode filename.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(strings.TrimPrefix(s, "\ufeff")))
}

// buildRows maps raw records onto the first non-empty record's headings.
func buildRows(records [][]Cell) ([]Row, error) {
	headerIdx := -1
	for i, rec := range records {
		for _, c := range rec {
			if c.Value != "" {
				headerIdx = i
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrNoHeader
	}

	keys := make([]string, len(records[headerIdx]))
	for i, c := range records[headerIdx] {
		keys[i] = HeadingKey(c.Value)
	}

	data := records[headerIdx+1:]
	if len(data) > MaxRows {
		return nil, ErrTooManyRows
	}

	rows := make([]Row, 0, len(data))
	for i, rec := range data {
		row := Row{Number: headerIdx + i + 2, Cells: make(map[string]Cell, len(keys))}
		for col, key := range keys {
			if key == "" {
				continue
			}
			if _, dup := row.Cells[key]; dup {
				continue
			}
			var c Cell
			if col < len(rec) {
				c = rec[col]
			}
			row.Cells[key] = c
		}
		rows = append(rows, row)
	}
	return rows, nil
}
