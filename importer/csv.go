package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Warning is a non-fatal problem found while parsing an import file. Line
// numbers are 1-based and count the header row as line 1.
type Warning struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// table is a parsed semicolon-delimited CSV file with normalized headers.
type table struct {
	headers []string
	rows    [][]string
}

// readTable parses semicolon-delimited CSV with RFC4180 quoting. A leading
// UTF-8 BOM is stripped and headers are lowercased and trimmed. Rows may
// have fewer fields than the header; missing cells read as empty.
func readTable(r io.Reader) (*table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ogiltig CSV-huvudrad: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	t := &table{headers: headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fel vid läsning av CSV: %w", err)
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

// columnIndex returns the index of the first header matching any of the
// given names, or -1.
func (t *table) columnIndex(names ...string) int {
	for _, name := range names {
		for i, h := range t.headers {
			if h == name {
				return i
			}
		}
	}
	return -1
}

// cell returns the trimmed value of column idx in the given row, or "" when
// the row is short or idx is -1.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
