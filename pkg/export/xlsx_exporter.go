package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	maxSheetName  = 31
	widthSampling = 50
	minColWidth   = 6.0
	maxColWidth   = 45.0
)

var sheetNameReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// XLSXExporter renders workbooks with excelize.
type XLSXExporter struct{}

// NewXLSXExporter builds an xlsx exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

type xlsxStyles struct {
	title, header, body, footer, note int
}

func newStyles(f *excelize.File) (xlsxStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "#BFBFBF", Style: 1},
		{Type: "right", Color: "#BFBFBF", Style: 1},
		{Type: "top", Color: "#BFBFBF", Style: 1},
		{Type: "bottom", Color: "#BFBFBF", Style: 1},
	}
	var (
		st  xlsxStyles
		err error
	)
	if st.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}}); err != nil {
		return st, err
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	}); err != nil {
		return st, err
	}
	if st.body, err = f.NewStyle(&excelize.Style{Border: border}); err != nil {
		return st, err
	}
	if st.footer, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Border: border,
	}); err != nil {
		return st, err
	}
	st.note, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true, Color: "#7F7F7F"}})
	return st, err
}

// Render writes every sheet in order and returns the xlsx bytes.
func (e *XLSXExporter) Render(wb Workbook) ([]byte, error) {
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one sheet")
	}
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}

	used := make(map[string]bool, len(wb.Sheets))
	for i, s := range wb.Sheets {
		name := uniqueSheetName(s.Title, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, s, styles); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, s Sheet, st xlsxStyles) error {
	cols := len(s.Table.Headers)
	if cols == 0 {
		cols = 1
	}
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}

	row := 1
	for i, line := range s.Preamble {
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetCellStr(name, cell, line); err != nil {
			return err
		}
		if cols > 1 {
			if err := f.MergeCell(name, cell, fmt.Sprintf("%s%d", lastCol, row)); err != nil {
				return err
			}
		}
		if i == 0 {
			_ = f.SetCellStyle(name, cell, cell, st.title)
		}
		row++
	}
	if len(s.Preamble) > 0 {
		row++
	}

	for _, block := range s.Blocks {
		next, err := writeBlock(f, name, row, block, st)
		if err != nil {
			return err
		}
		row = next + 1
	}

	if len(s.Table.Headers) > 0 {
		headerRow := row
		if err := setRow(f, name, row, s.Table.Headers); err != nil {
			return err
		}
		_ = f.SetCellStyle(name, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), st.header)
		row++

		for _, r := range s.Table.Rows {
			if err := setRow(f, name, row, r); err != nil {
				return err
			}
			row++
		}
		lastBody := row - 1
		if lastBody > headerRow {
			_ = f.SetCellStyle(name, fmt.Sprintf("A%d", headerRow+1), fmt.Sprintf("%s%d", lastCol, lastBody), st.body)
			_ = f.AutoFilter(name, fmt.Sprintf("A%d:%s%d", headerRow, lastCol, lastBody), nil)
		}
		if n := min(s.NoteRows, len(s.Table.Rows)); n > 0 {
			_ = f.SetCellStyle(name, fmt.Sprintf("A%d", headerRow+1), fmt.Sprintf("%s%d", lastCol, headerRow+n), st.note)
		}
		_ = f.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      headerRow,
			TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
			ActivePane:  "bottomLeft",
		})
	}

	for _, r := range s.Footer {
		if err := setRow(f, name, row, r); err != nil {
			return err
		}
		_ = f.SetCellStyle(name, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), st.footer)
		row++
	}

	autoWidth(f, name, s)
	return nil
}

// writeBlock writes a bordered table without filter or panes and returns the
// row after it.
func writeBlock(f *excelize.File, name string, row int, t Table, st xlsxStyles) (int, error) {
	if len(t.Headers) == 0 {
		return row, nil
	}
	lastCol, err := excelize.ColumnNumberToName(len(t.Headers))
	if err != nil {
		return row, err
	}
	if err := setRow(f, name, row, t.Headers); err != nil {
		return row, err
	}
	_ = f.SetCellStyle(name, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), st.header)
	start := row + 1
	for _, r := range t.Rows {
		row++
		if err := setRow(f, name, row, r); err != nil {
			return row, err
		}
	}
	if row >= start {
		_ = f.SetCellStyle(name, fmt.Sprintf("A%d", start), fmt.Sprintf("%s%d", lastCol, row), st.body)
	}
	return row + 1, nil
}

func setRow(f *excelize.File, name string, row int, values []string) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(name, cell, &cells)
}

// autoWidth sizes columns from the headers and the first rows of every table.
func autoWidth(f *excelize.File, name string, s Sheet) {
	widths := map[int]int{}
	for _, t := range append(append([]Table{}, s.Blocks...), s.Table) {
		for c, h := range t.Headers {
			width := max(widths[c], utf8.RuneCountInString(h))
			for r := 0; r < min(widthSampling, len(t.Rows)); r++ {
				if c < len(t.Rows[r]) {
					width = max(width, utf8.RuneCountInString(t.Rows[r][c]))
				}
			}
			widths[c] = width
		}
	}
	for c, width := range widths {
		w := float64(width) * 1.1
		if w < minColWidth {
			w = minColWidth
		}
		if w > maxColWidth {
			w = maxColWidth
		}
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			continue
		}
		_ = f.SetColWidth(name, col, col, w)
	}
}

// uniqueSheetName strips characters excel rejects, caps the length, and
// suffixes repeats.
func uniqueSheetName(title string, used map[string]bool) string {
	base := strings.TrimSpace(sheetNameReplacer.Replace(title))
	if base == "" {
		base = "Sheet"
	}
	base = truncateRunes(base, maxSheetName)
	name := base
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
