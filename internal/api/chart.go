package api

import (
	"strings"
	"time"

	"github.com/askdb/askdb/internal/store"
)

// ChartKind is a rendering hint for clients; plain tables are always a
// valid fallback.
type ChartKind string

const (
	ChartTable   ChartKind = "table"
	ChartBar     ChartKind = "bar"
	ChartLine    ChartKind = "line"
	ChartScatter ChartKind = "scatter"
)

// suggestChart inspects a two-column result and picks a chart: a label
// column against a numeric column draws bars, a temporal column draws a
// line, two numeric columns scatter. Anything else renders as a table.
func suggestChart(result store.ResultSet) ChartKind {
	if len(result.Columns) != 2 || len(result.Rows) == 0 {
		return ChartTable
	}

	first := classifyColumn(result, 0)
	second := classifyColumn(result, 1)
	if second != cellNumeric {
		return ChartTable
	}
	switch first {
	case cellTemporal:
		return ChartLine
	case cellNumeric:
		return ChartScatter
	case cellText:
		return ChartBar
	}
	return ChartTable
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellNumeric
	cellTemporal
	cellText
	cellMixed
)

func classifyColumn(result store.ResultSet, col int) cellKind {
	kind := cellEmpty
	for _, row := range result.Rows {
		ck := classifyCell(row[col])
		if ck == cellEmpty {
			continue
		}
		if kind == cellEmpty {
			kind = ck
			continue
		}
		if kind != ck {
			return cellMixed
		}
	}
	return kind
}

func classifyCell(value any) cellKind {
	switch v := value.(type) {
	case nil:
		return cellEmpty
	case int64, float64, int, int32, uint64:
		return cellNumeric
	case bool:
		return cellText
	case time.Time:
		return cellTemporal
	case string:
		if looksTemporal(v) {
			return cellTemporal
		}
		return cellText
	default:
		return cellText
	}
}

var temporalLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01",
}

func looksTemporal(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	for _, layout := range temporalLayouts {
		if _, err := time.Parse(layout, trimmed); err == nil {
			return true
		}
	}
	return false
}
