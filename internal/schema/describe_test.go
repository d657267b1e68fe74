package schema

import (
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/store"
)

func exampleTables() []store.Table {
	return []store.Table{
		{
			Name: "orders",
			Columns: []store.Column{
				{Name: "id", Type: store.TypeInteger, Nullable: false},
				{Name: "note", Type: store.TypeText, Nullable: true},
			},
			RowCount: 2,
		},
		{
			Name: "customers",
			Columns: []store.Column{
				{Name: "name", Type: store.TypeText, Nullable: false},
			},
			RowCount: 1,
		},
	}
}

func TestDescribeListsTablesInGivenOrder(t *testing.T) {
	text := Describe(exampleTables(), nil, 0)
	ordersAt := strings.Index(text, "Table: orders")
	customersAt := strings.Index(text, "Table: customers")
	if ordersAt < 0 || customersAt < 0 {
		t.Fatalf("missing table headings in:\n%s", text)
	}
	if ordersAt > customersAt {
		t.Fatalf("tables out of order:\n%s", text)
	}
}

func TestDescribeAnnotatesNullability(t *testing.T) {
	text := Describe(exampleTables(), nil, 0)
	if !strings.Contains(text, "  - id (INTEGER) NOT NULL\n") {
		t.Errorf("missing NOT NULL column line:\n%s", text)
	}
	if !strings.Contains(text, "  - note (TEXT) NULL\n") {
		t.Errorf("missing NULL column line:\n%s", text)
	}
}

func TestDescribeIsDeterministic(t *testing.T) {
	samples := map[string]store.ResultSet{
		"orders": {
			Columns: []string{"id", "note"},
			Rows:    [][]any{{int64(1), "first"}, {int64(2), nil}},
		},
	}
	first := Describe(exampleTables(), samples, 3)
	second := Describe(exampleTables(), samples, 3)
	if first != second {
		t.Fatalf("describe output not byte-identical:\n%q\n%q", first, second)
	}
}

func TestDescribeBoundsSampleRows(t *testing.T) {
	samples := map[string]store.ResultSet{
		"orders": {
			Columns: []string{"id"},
			Rows:    [][]any{{int64(1)}, {int64(2)}, {int64(3)}, {int64(4)}, {int64(5)}},
		},
	}
	text := Describe(exampleTables(), samples, 2)
	if !strings.Contains(text, "Sample rows from orders:") {
		t.Fatalf("missing sample heading:\n%s", text)
	}
	if strings.Contains(text, "3") {
		t.Fatalf("sample not bounded to 2 rows:\n%s", text)
	}
}

func TestDescribeRendersNullCells(t *testing.T) {
	samples := map[string]store.ResultSet{
		"orders": {
			Columns: []string{"id", "note"},
			Rows:    [][]any{{int64(1), nil}},
		},
	}
	text := Describe(exampleTables(), samples, 3)
	if !strings.Contains(text, "NULL") {
		t.Fatalf("nil cell not rendered as NULL:\n%s", text)
	}
}
