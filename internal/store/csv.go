package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// IngestCSV parses comma-delimited text with a header row and loads it as
// a table. Any parse failure is reported as an IngestError; cells are
// never silently coerced.
func (s *Store) IngestCSV(ctx context.Context, name string, r io.Reader) (Table, error) {
	data, err := ParseCSV(r)
	if err != nil {
		return Table{}, &IngestError{Table: SanitizeName(name), Err: err}
	}
	return s.Ingest(ctx, name, data)
}

// ParseCSV reads a header row plus one or more data rows and infers a
// column type for each column: INTEGER if every non-empty cell parses as
// an integer, REAL if every non-empty cell parses as a number, TEXT
// otherwise. A column with no empty cells is marked NOT NULL.
func ParseCSV(r io.Reader) (TableData, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return TableData{}, fmt.Errorf("missing header row")
	}
	if err != nil {
		return TableData{}, fmt.Errorf("read header: %w", err)
	}
	for i, col := range header {
		if strings.TrimSpace(col) == "" {
			return TableData{}, fmt.Errorf("header column %d is empty", i+1)
		}
	}

	var raw [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return TableData{}, fmt.Errorf("read row %d: %w", len(raw)+2, err)
		}
		raw = append(raw, record)
	}
	if len(raw) == 0 {
		return TableData{}, fmt.Errorf("no data rows")
	}

	data := TableData{
		Columns: header,
		Types:   make([]ColumnType, len(header)),
		NotNull: make([]bool, len(header)),
	}
	for i := range header {
		data.Types[i], data.NotNull[i] = inferColumn(raw, i)
	}

	data.Rows = make([][]any, 0, len(raw))
	for _, record := range raw {
		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = convertCell(cell, data.Types[i])
		}
		data.Rows = append(data.Rows, row)
	}
	return data, nil
}

func inferColumn(rows [][]string, col int) (ColumnType, bool) {
	allInteger := true
	allReal := true
	notNull := true
	sawValue := false
	for _, row := range rows {
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			notNull = false
			continue
		}
		sawValue = true
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			allInteger = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			allReal = false
		}
	}
	if !sawValue {
		return TypeText, false
	}
	switch {
	case allInteger:
		return TypeInteger, notNull
	case allReal:
		return TypeReal, notNull
	default:
		return TypeText, notNull
	}
}

func convertCell(cell string, colType ColumnType) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	switch colType {
	case TypeInteger:
		value, err := strconv.ParseInt(trimmed, 10, 64)
		if err == nil {
			return value
		}
	case TypeReal:
		value, err := strconv.ParseFloat(trimmed, 64)
		if err == nil {
			return value
		}
	}
	return cell
}
