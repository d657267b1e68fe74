package store

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a lookup against a table that was never ingested.
var ErrNotFound = errors.New("table not found")

// IngestError reports malformed tabular input or a failure to load it.
type IngestError struct {
	Table string
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %q: %v", e.Table, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// ExecutionError reports a statement the engine refused or failed to run.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string { return e.Message }
