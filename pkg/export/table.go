package export

// Table is an ordered grid of text cells under a header row.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Sheet is one worksheet: a header block of free text lines, optional leading
// tables, the main table, and optional emphasised footer rows for totals.
type Sheet struct {
	Title    string
	Preamble []string
	// Blocks are smaller tables written between the preamble and Table.
	Blocks   []Table
	Table    Table
	Footer   [][]string
	// NoteRows styles the first n table rows as instructions.
	NoteRows int
}

// Workbook is an ordered collection of sheets.
type Workbook struct {
	Sheets []Sheet
}

// Sheet returns the sheet titled title.
func (w *Workbook) Sheet(title string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Title == title {
			return s, true
		}
	}
	return Sheet{}, false
}

// Titles lists the sheet titles in order.
func (w *Workbook) Titles() []string {
	titles := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		titles[i] = s.Title
	}
	return titles
}
