package sheet

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX decodes the first worksheet of an xlsx workbook. Values are read
// raw so date cells surface as serial numbers.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	records := make([][]Cell, len(raw))
	for i, values := range raw {
		rec := make([]Cell, len(values))
		for j, v := range values {
			v = cleanText(v)
			rec[j] = Cell{Value: v, Numeric: isNumericCell(f, name, j+1, i+1, v)}
		}
		records[i] = rec
	}
	return buildRows(trimTrailingBlank(records))
}

func isNumericCell(f *excelize.File, sheet string, col, row int, value string) bool {
	if value == "" {
		return false
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return false
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return false
	}
	// Plain numbers are stored without a type attribute.
	return typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset
}
