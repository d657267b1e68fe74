package nlsql

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeModel struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SELECT 1", "SELECT 1;"},
		{"trailing semicolons", "SELECT 1;;;", "SELECT 1;"},
		{"sql fence", "```sql\nSELECT *\nFROM t\n```", "SELECT * FROM t;"},
		{"untagged fence", "```\nSELECT 1\n```", "SELECT 1;"},
		{"sqlite tag", "```sqlite\nSELECT 1;\n```", "SELECT 1;"},
		{"whitespace runs", "SELECT   a,\n\t b  FROM   t", "SELECT a, b FROM t;"},
		{"surrounding space", "   SELECT 1   ", "SELECT 1;"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestGenerateEmbedsQuestionAndSchema(t *testing.T) {
	model := &fakeModel{response: "SELECT name FROM employees;"}
	gen := NewGenerator(model)

	schemaText := "Database Schema:\n\nTable: employees\n"
	query, err := gen.Generate(context.Background(), "Who has the highest salary?", schemaText)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if query.Cleaned != "SELECT name FROM employees;" {
		t.Fatalf("cleaned = %q", query.Cleaned)
	}
	if len(model.prompts) != 1 {
		t.Fatalf("model calls = %d, want 1", len(model.prompts))
	}
	prompt := model.prompts[0]
	if !strings.Contains(prompt, schemaText) {
		t.Errorf("prompt missing schema description")
	}
	if !strings.Contains(prompt, "User Question: Who has the highest salary?") {
		t.Errorf("prompt missing question")
	}
	if !strings.Contains(prompt, "exactly one read-only SQL query") {
		t.Errorf("prompt missing system instruction")
	}
}

func TestGenerateRejectsNonSelect(t *testing.T) {
	model := &fakeModel{response: "DROP TABLE employees;"}
	gen := NewGenerator(model)

	_, err := gen.Generate(context.Background(), "delete everything", "schema")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want GenerationError", err)
	}
	if !strings.Contains(err.Error(), "non-read-only") {
		t.Fatalf("error = %v", err)
	}
}

func TestGenerateRejectsEmptyResponse(t *testing.T) {
	model := &fakeModel{response: "```sql\n```"}
	gen := NewGenerator(model)
	_, err := gen.Generate(context.Background(), "anything", "schema")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want GenerationError", err)
	}
}

func TestGenerateWrapsModelFailure(t *testing.T) {
	cause := errors.New("quota exceeded")
	model := &fakeModel{err: cause}
	gen := NewGenerator(model)

	_, err := gen.Generate(context.Background(), "anything", "schema")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want GenerationError", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not wrapped: %v", err)
	}
}

func TestGenerateAcceptsLowercaseSelect(t *testing.T) {
	model := &fakeModel{response: "select * from t"}
	gen := NewGenerator(model)
	query, err := gen.Generate(context.Background(), "q", "s")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if query.Cleaned != "select * from t;" {
		t.Fatalf("cleaned = %q", query.Cleaned)
	}
}
