package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth = 277.0
	pdfRowHeight = 6.5
)

// PDFExporter renders sheets as consecutive landscape tables.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render writes every sheet with its preamble, header, rows and footer.
// Each sheet starts on a new page.
func (e *PDFExporter) Render(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("pdf requires at least one sheet")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, s := range sheets {
		if len(s.Table.Headers) == 0 {
			return nil, fmt.Errorf("pdf sheet %q has no headers", s.Title)
		}
		pdf.AddPage()

		for i, line := range s.Preamble {
			if i == 0 {
				pdf.SetFont("Arial", "B", 13)
				pdf.CellFormat(0, 8, tr(line), "", 1, "C", false, 0, "")
				continue
			}
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(0, 6, tr(line), "", 1, "C", false, 0, "")
		}
		pdf.Ln(3)

		for _, block := range s.Blocks {
			blockWidths := columnWidths(block)
			pdf.SetFont("Arial", "B", 9)
			pdf.SetFillColor(68, 114, 196)
			pdf.SetTextColor(255, 255, 255)
			for i, h := range block.Headers {
				pdf.CellFormat(blockWidths[i], pdfRowHeight+1, tr(h), "1", 0, "C", true, 0, "")
			}
			pdf.Ln(-1)
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont("Arial", "", 8)
			for _, row := range block.Rows {
				for i := range block.Headers {
					value := ""
					if i < len(row) {
						value = row[i]
					}
					pdf.CellFormat(blockWidths[i], pdfRowHeight, tr(value), "1", 0, "", false, 0, "")
				}
				pdf.Ln(-1)
			}
			pdf.Ln(3)
		}

		widths := columnWidths(s.Table)
		header := func() {
			pdf.SetFont("Arial", "B", 9)
			pdf.SetFillColor(68, 114, 196)
			pdf.SetTextColor(255, 255, 255)
			for i, h := range s.Table.Headers {
				pdf.CellFormat(widths[i], pdfRowHeight+1, tr(h), "1", 0, "C", true, 0, "")
			}
			pdf.Ln(-1)
			pdf.SetTextColor(0, 0, 0)
		}
		header()

		_, pageHeight := pdf.GetPageSize()
		_, _, _, bottom := pdf.GetMargins()
		body := func(rows [][]string, bold bool) {
			style := ""
			if bold {
				style = "B"
			}
			for _, row := range rows {
				if pdf.GetY()+pdfRowHeight > pageHeight-bottom {
					pdf.AddPage()
					header()
				}
				pdf.SetFont("Arial", style, 8)
				for i := range s.Table.Headers {
					value := ""
					if i < len(row) {
						value = row[i]
					}
					pdf.CellFormat(widths[i], pdfRowHeight, tr(value), "1", 0, "", bold, 0, "")
				}
				pdf.Ln(-1)
			}
		}
		body(s.Table.Rows, false)
		pdf.SetFillColor(217, 225, 242)
		body(s.Footer, true)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths shares the page width proportionally to content length.
func columnWidths(t Table) []float64 {
	weights := make([]float64, len(t.Headers))
	total := 0.0
	for i, h := range t.Headers {
		w := float64(len(h))
		for _, row := range t.Rows {
			if i < len(row) && float64(len(row[i])) > w {
				w = float64(len(row[i]))
			}
		}
		if w < 3 {
			w = 3
		}
		if w > 30 {
			w = 30
		}
		weights[i] = w
		total += w
	}
	for i := range weights {
		weights[i] = weights[i] / total * pdfPageWidth
	}
	return weights
}
