package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ColumnType is the declared storage type of an ingested column.
type ColumnType string

const (
	TypeInteger ColumnType = "INTEGER"
	TypeReal    ColumnType = "REAL"
	TypeText    ColumnType = "TEXT"
	TypeUnknown ColumnType = ""
)

type Column struct {
	Name       string
	Type       ColumnType
	Nullable   bool
	PrimaryKey bool
}

type Table struct {
	Name     string
	Columns  []Column
	RowCount int
}

// TableData is a parsed, typed batch of rows ready for ingestion.
type TableData struct {
	Columns []string
	Types   []ColumnType
	NotNull []bool
	Rows    [][]any
}

type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Store owns an embedded SQLite database holding the ingested tables.
// It performs no internal locking: concurrent Ingest and Execute against
// the same Store must be serialized by the caller.
type Store struct {
	db    *sqlx.DB
	order []string
	known map[string]bool
}

// New opens an in-memory store. The connection pool is pinned to a single
// connection because each SQLite :memory: connection is its own database.
func New() (*Store, error) {
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return NewFromDB(db), nil
}

// NewFromDB wraps an existing database handle. Used by tests to inject
// mocked connections.
func NewFromDB(db *sqlx.DB) *Store {
	return &Store{db: db, known: map[string]bool{}}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ingest creates (or atomically replaces) the table derived from name.
// The drop, create, and inserts run inside one transaction, so readers
// never observe a partially replaced table.
func (s *Store) Ingest(ctx context.Context, name string, data TableData) (Table, error) {
	if len(data.Columns) == 0 {
		return Table{}, &IngestError{Table: name, Err: fmt.Errorf("no columns")}
	}
	for i, row := range data.Rows {
		if len(row) != len(data.Columns) {
			return Table{}, &IngestError{Table: name, Err: fmt.Errorf("row %d has %d values, expected %d", i+1, len(row), len(data.Columns))}
		}
	}

	sanitized := SanitizeName(name)
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Table{}, &IngestError{Table: sanitized, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(sanitized)); err != nil {
		return Table{}, &IngestError{Table: sanitized, Err: err}
	}

	defs := make([]string, 0, len(data.Columns))
	for i, col := range data.Columns {
		def := quoteIdent(col) + " " + string(columnTypeOrText(data.Types, i))
		if len(data.NotNull) == len(data.Columns) && data.NotNull[i] {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(sanitized), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return Table{}, &IngestError{Table: sanitized, Err: err}
	}

	if len(data.Rows) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(data.Columns)), ",")
		quoted := make([]string, len(data.Columns))
		for i, col := range data.Columns {
			quoted[i] = quoteIdent(col)
		}
		insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(sanitized), strings.Join(quoted, ", "), placeholders)
		for _, row := range data.Rows {
			if _, err := tx.ExecContext(ctx, insertSQL, row...); err != nil {
				return Table{}, &IngestError{Table: sanitized, Err: err}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Table{}, &IngestError{Table: sanitized, Err: err}
	}

	if !s.known[sanitized] {
		s.known[sanitized] = true
		s.order = append(s.order, sanitized)
	}
	return s.describeTable(ctx, sanitized)
}

// Schema reports every registered table in ingestion order. Column
// metadata comes from SQLite introspection, not from the ingest input.
func (s *Store) Schema(ctx context.Context) ([]Table, error) {
	tables := make([]Table, 0, len(s.order))
	for _, name := range s.order {
		table, err := s.describeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// Sample returns up to n rows of the named table.
func (s *Store) Sample(ctx context.Context, name string, n int) (ResultSet, error) {
	if !s.known[name] {
		return ResultSet{}, fmt.Errorf("table %q: %w", name, ErrNotFound)
	}
	if n <= 0 {
		return ResultSet{}, nil
	}
	return s.Execute(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(name), n))
}

// Execute runs exactly the given statement and returns the result set.
// It does not enforce the read-only contract: callers are expected to
// have validated the statement first.
func (s *Store) Execute(ctx context.Context, sqlText string) (ResultSet, error) {
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return ResultSet{}, &ExecutionError{Message: err.Error()}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return ResultSet{}, &ExecutionError{Message: err.Error()}
	}

	result := ResultSet{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return ResultSet{}, &ExecutionError{Message: err.Error()}
		}
		result.Rows = append(result.Rows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return ResultSet{}, &ExecutionError{Message: err.Error()}
	}
	return result, nil
}

func (s *Store) describeTable(ctx context.Context, name string) (Table, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(name)))
	if err != nil {
		return Table{}, fmt.Errorf("introspect table %q: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	table := Table{Name: name}
	for rows.Next() {
		var (
			cid        int
			colName    string
			colType    string
			notNull    int
			defaultVal any
			primaryKey int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &primaryKey); err != nil {
			return Table{}, fmt.Errorf("introspect table %q: %w", name, err)
		}
		table.Columns = append(table.Columns, Column{
			Name:       colName,
			Type:       declaredType(colType),
			Nullable:   notNull == 0,
			PrimaryKey: primaryKey > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("introspect table %q: %w", name, err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(name))); err != nil {
		return Table{}, fmt.Errorf("count rows of %q: %w", name, err)
	}
	table.RowCount = count
	return table, nil
}

// SanitizeName maps an arbitrary table name onto a safe SQL identifier:
// lowercase, alphanumeric and single underscores only, never starting
// with a digit. Idempotent.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	safe := b.String()
	for strings.Contains(safe, "__") {
		safe = strings.ReplaceAll(safe, "__", "_")
	}
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "table"
	}
	if safe[0] >= '0' && safe[0] <= '9' {
		safe = "table_" + safe
	}
	return strings.ToLower(safe)
}

func declaredType(raw string) ColumnType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "INTEGER", "INT":
		return TypeInteger
	case "REAL", "FLOAT", "DOUBLE":
		return TypeReal
	case "TEXT":
		return TypeText
	default:
		return TypeUnknown
	}
}

func columnTypeOrText(types []ColumnType, i int) ColumnType {
	if i < len(types) && types[i] != TypeUnknown {
		return types[i]
	}
	return TypeText
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
