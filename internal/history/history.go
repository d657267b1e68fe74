// Package history keeps an append-only in-memory record of executed
// questions for audit and replay.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one executed question. Entries are write-once: nothing
// mutates or reorders them after Append.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	Question   string    `json:"question"`
	SQL        string    `json:"sql"`
	RowCount   int       `json:"row_count"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Log is safe for concurrent use; the HTTP shell shares one instance
// across requests.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

func NewLog() *Log {
	return &Log{}
}

// Append records a successfully executed query and returns the stored
// entry.
func (l *Log) Append(question, sqlText string, rowCount int, executedAt time.Time) Entry {
	entry := Entry{
		ID:         uuid.New(),
		Question:   question,
		SQL:        sqlText,
		RowCount:   rowCount,
		ExecutedAt: executedAt,
	}
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
	return entry
}

// All returns the entries oldest first. The returned slice is a copy;
// the log itself is never exposed for mutation.
func (l *Log) All() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear replaces the backing slice wholesale; existing Entry values held
// by callers stay valid.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
