// Package schema renders a store's table layout into the natural-language
// context block consumed by the SQL generator.
package schema

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/store"
)

// DefaultSampleRows bounds how many sample rows are rendered per table.
const DefaultSampleRows = 3

// Describe serializes the given tables, in the order supplied, into a
// plain-text schema description. Samples, when present for a table, are
// appended after its column list, capped at maxSamples rows (or
// DefaultSampleRows when maxSamples <= 0). The output is a pure function
// of its inputs: no table or column is ever omitted or truncated.
func Describe(tables []store.Table, samples map[string]store.ResultSet, maxSamples int) string {
	if maxSamples <= 0 {
		maxSamples = DefaultSampleRows
	}

	var b strings.Builder
	b.WriteString("Database Schema:\n\n")
	for _, table := range tables {
		b.WriteString("Table: " + table.Name + "\n")
		b.WriteString("Columns:\n")
		for _, col := range table.Columns {
			nullable := "NOT NULL"
			if col.Nullable {
				nullable = "NULL"
			}
			colType := string(col.Type)
			if colType == "" {
				colType = "UNKNOWN"
			}
			fmt.Fprintf(&b, "  - %s (%s) %s\n", col.Name, colType, nullable)
		}

		sample, ok := samples[table.Name]
		if ok && len(sample.Rows) > 0 {
			bounded := sample
			if len(bounded.Rows) > maxSamples {
				bounded.Rows = bounded.Rows[:maxSamples]
			}
			b.WriteString("\nSample rows from " + table.Name + ":\n")
			b.WriteString(renderRows(bounded))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderRows lays the result set out as padded plain-text columns.
func renderRows(rs store.ResultSet) string {
	widths := make([]int, len(rs.Columns))
	cells := make([][]string, 0, len(rs.Rows)+1)

	header := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		header[i] = col
		widths[i] = len(col)
	}
	cells = append(cells, header)

	for _, row := range rs.Rows {
		rendered := make([]string, len(rs.Columns))
		for i := range rs.Columns {
			var cell string
			if i < len(row) {
				cell = renderValue(row[i])
			}
			rendered[i] = cell
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
		cells = append(cells, rendered)
	}

	var b strings.Builder
	for _, row := range cells {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderValue(value any) string {
	if value == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", value)
}
