// Package tabular reads and writes the delimited files exchanged with users.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/money-manager/internal/domain"
)

const utf8BOM = "\ufeff"

// ReadCSV parses a CSV upload into a raw Table.
// The first record is the header. Cell text is kept exactly as uploaded so
// exports reproduce it. Short records are padded with empty values; records
// longer than the header make the whole table malformed.
func ReadCSV(r io.Reader) (domain.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return domain.Table{}, &domain.MalformedInputError{Err: fmt.Errorf("read CSV: %w", err)}
	}
	if len(records) == 0 {
		return domain.Table{}, &domain.MalformedInputError{Err: errors.New("no columns to parse")}
	}

	header := parseHeader(records[0])
	table := domain.Table{
		Header:  header,
		Records: make([][]string, 0, len(records)-1),
	}

	for i, record := range records[1:] {
		rowNum := i + 2
		if len(record) > len(header) {
			return domain.Table{}, &domain.MalformedInputError{
				Err: fmt.Errorf("line %d: expected %d fields, saw %d", rowNum, len(header), len(record)),
			}
		}
		row := make([]string, len(header))
		copy(row, record)
		table.Records = append(table.Records, row)
	}

	return table, nil
}

// parseHeader drops a UTF-8 byte order mark. Column matching ignores
// surrounding whitespace, so header text is otherwise left alone.
func parseHeader(row []string) []string {
	header := make([]string, len(row))
	for i, h := range row {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = h
	}
	return header
}

// WriteCSV writes header and records as CSV and flushes the writer.
func WriteCSV(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("WriteCSV: header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("WriteCSV: records: %w", err)
	}
	return nil
}
