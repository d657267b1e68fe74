// Package pipeline chains the question-to-answer flow: describe the
// schema, generate a candidate query, validate it, execute it, log it.
// The flow is strictly linear; a failure at any stage stops the request
// and nothing is appended to the history.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/nlsql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/store"
	"github.com/askdb/askdb/internal/validate"
)

// ErrUnvalidatedQuery reports programmer misuse: executing a query that
// does not carry an accepted verdict. This is a contract check, not the
// security boundary; the validator is.
var ErrUnvalidatedQuery = errors.New("query was not accepted by the validator")

// ErrorKind classifies execution failures so callers can decide whether
// the raw engine message is safe to show.
type ErrorKind string

const (
	KindSyntax   ErrorKind = "syntax"
	KindInternal ErrorKind = "internal"
)

// ExecError wraps a store-level execution failure with its classification.
type ExecError struct {
	Kind    ErrorKind
	Message string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("execute query (%s): %s", e.Kind, e.Message)
}

// RejectedError reports a validation rejection, carrying the verdict's
// reason code.
type RejectedError struct {
	Verdict validate.Verdict
}

func (e *RejectedError) Error() string {
	if e.Verdict.Keyword != "" {
		return fmt.Sprintf("query rejected: %s (%s)", e.Verdict.Reason, e.Verdict.Keyword)
	}
	return fmt.Sprintf("query rejected: %s", e.Verdict.Reason)
}

// Answer is the successful outcome of one Ask round trip.
type Answer struct {
	Question string
	Query    nlsql.GeneratedQuery
	Result   store.ResultSet
	Entry    history.Entry
	Duration time.Duration
}

type Pipeline struct {
	Store      *store.Store
	Generator  *nlsql.Generator
	History    *history.Log
	SampleRows int
	Logger     *slog.Logger

	now func() time.Time
}

func New(st *store.Store, gen *nlsql.Generator, log *history.Log) *Pipeline {
	return &Pipeline{
		Store:      st,
		Generator:  gen,
		History:    log,
		SampleRows: schema.DefaultSampleRows,
		now:        time.Now,
	}
}

// Ask runs the full chain for one question. Exactly one history entry is
// appended on success; nothing is logged on any failure.
func (p *Pipeline) Ask(ctx context.Context, question string) (Answer, error) {
	start := p.clock()()
	observability.IncrementQuestions()

	description, err := p.DescribeSchema(ctx)
	if err != nil {
		return Answer{}, err
	}

	query, err := p.Generator.Generate(ctx, question, description)
	if err != nil {
		observability.IncrementGenerationFailures()
		return Answer{}, err
	}

	verdict := validate.Validate(query.Cleaned)
	if !verdict.Accepted {
		observability.IncrementValidationRejections(string(verdict.Reason))
		return Answer{}, &RejectedError{Verdict: verdict}
	}

	result, err := p.Execute(ctx, query, verdict)
	if err != nil {
		return Answer{}, err
	}

	entry := p.History.Append(question, query.Cleaned, len(result.Rows), p.clock()())
	duration := p.clock()().Sub(start)
	observability.ObserveQueryDuration(duration)
	if p.Logger != nil {
		p.Logger.InfoContext(ctx, "question_answered",
			slog.String("sql", query.Cleaned),
			slog.Int("rows", len(result.Rows)),
			slog.String("duration", duration.String()),
		)
	}
	return Answer{
		Question: question,
		Query:    query,
		Result:   result,
		Entry:    entry,
		Duration: duration,
	}, nil
}

// DescribeSchema renders the current table set, with bounded samples,
// into the text block fed to the generator. Built fresh per request:
// the table set may have changed.
func (p *Pipeline) DescribeSchema(ctx context.Context) (string, error) {
	tables, err := p.Store.Schema(ctx)
	if err != nil {
		return "", fmt.Errorf("load schema: %w", err)
	}
	samples := map[string]store.ResultSet{}
	for _, table := range tables {
		sample, err := p.Store.Sample(ctx, table.Name, p.sampleRows())
		if err != nil {
			continue
		}
		samples[table.Name] = sample
	}
	return schema.Describe(tables, samples, p.sampleRows()), nil
}

// Execute refuses queries without an accepted verdict, delegates to the
// store, and classifies failures.
func (p *Pipeline) Execute(ctx context.Context, query nlsql.GeneratedQuery, verdict validate.Verdict) (store.ResultSet, error) {
	if !verdict.Accepted {
		return store.ResultSet{}, fmt.Errorf("%w (reason=%s)", ErrUnvalidatedQuery, verdict.Reason)
	}
	result, err := p.Store.Execute(ctx, query.Cleaned)
	if err != nil {
		return store.ResultSet{}, classify(err)
	}
	return result, nil
}

func (p *Pipeline) sampleRows() int {
	if p.SampleRows > 0 {
		return p.SampleRows
	}
	return schema.DefaultSampleRows
}

func (p *Pipeline) clock() func() time.Time {
	if p.now != nil {
		return p.now
	}
	return time.Now
}

var syntaxMarkers = []string{
	"syntax error",
	"no such table",
	"no such column",
	"no such function",
	"ambiguous column name",
	"incomplete input",
	"near ",
}

func classify(err error) error {
	var execErr *store.ExecutionError
	if !errors.As(err, &execErr) {
		return &ExecError{Kind: KindInternal, Message: err.Error()}
	}
	lower := strings.ToLower(execErr.Message)
	for _, marker := range syntaxMarkers {
		if strings.Contains(lower, marker) {
			return &ExecError{Kind: KindSyntax, Message: execErr.Message}
		}
	}
	return &ExecError{Kind: KindInternal, Message: execErr.Message}
}
