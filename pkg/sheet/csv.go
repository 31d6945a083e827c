package sheet

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadCSV decodes comma or semicolon separated text. Every cell is text.
func ReadCSV(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("peek csv: %w", err)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = guessDelimiter(string(first))

	var records [][]Cell
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		cells := make([]Cell, len(rec))
		for i, v := range rec {
			cells[i] = Cell{Value: cleanText(v)}
		}
		records = append(records, cells)
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	return buildRows(trimTrailingBlank(records))
}

func guessDelimiter(sample string) rune {
	line, _, _ := strings.Cut(sample, "\n")
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

func trimTrailingBlank(records [][]Cell) [][]Cell {
	end := len(records)
	for end > 0 && blankRecord(records[end-1]) {
		end--
	}
	return records[:end]
}

func blankRecord(rec []Cell) bool {
	for _, c := range rec {
		if c.Value != "" {
			return false
		}
	}
	return true
}
