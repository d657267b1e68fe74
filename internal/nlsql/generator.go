// Package nlsql turns a natural-language question plus a schema
// description into a single candidate SQL statement by calling an
// external language model. Model output is advisory: it is cleaned and
// prefix-checked here, and must still pass the validator before
// execution.
package nlsql

import (
	"context"
	"fmt"
	"strings"
)

// Model is the language-model collaborator: one synchronous text-in,
// text-out call. Implementations own their transport concerns;
// the generator never retries.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratedQuery carries the raw model output and its cleaned form.
// It lives for one request only.
type GeneratedQuery struct {
	Raw     string
	Cleaned string
}

// GenerationError reports a collaborator failure or a generation-time
// safety rejection.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate query: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

const systemInstruction = `You are an expert SQL query generator. Given a database schema and a user question, generate exactly one read-only SQL query that answers the question.

Important Guidelines:
1. Generate ONLY the SQL query, without any explanations or markdown
2. Use proper SQLite syntax
3. Match column names and table names exactly as shown in the schema
4. Use appropriate JOINs if querying multiple tables
5. Include WHERE, GROUP BY, ORDER BY, and LIMIT clauses as needed
6. Only generate SELECT queries (no INSERT, UPDATE, DELETE, DROP)`

// Generator composes prompts and extracts a candidate query from model
// output.
type Generator struct {
	model Model
}

func NewGenerator(model Model) *Generator {
	return &Generator{model: model}
}

// Generate runs one generation round trip. The schema description and
// question are embedded verbatim; the cleaned response must start with
// SELECT or the call fails without ever reaching the validator.
func (g *Generator) Generate(ctx context.Context, question, schemaDescription string) (GeneratedQuery, error) {
	prompt := BuildPrompt(question, schemaDescription)
	raw, err := g.model.Generate(ctx, prompt)
	if err != nil {
		return GeneratedQuery{}, &GenerationError{Err: err}
	}

	cleaned := Clean(raw)
	if strings.TrimSuffix(cleaned, ";") == "" {
		return GeneratedQuery{}, &GenerationError{Err: fmt.Errorf("model returned empty query")}
	}
	if !strings.HasPrefix(strings.ToUpper(cleaned), "SELECT") {
		return GeneratedQuery{}, &GenerationError{Err: fmt.Errorf("non-read-only query rejected")}
	}
	return GeneratedQuery{Raw: raw, Cleaned: cleaned}, nil
}

// BuildPrompt assembles the single instruction payload sent to the model.
func BuildPrompt(question, schemaDescription string) string {
	return fmt.Sprintf("%s\n\n%s\nUser Question: %s\n\nSQL Query:",
		systemInstruction, schemaDescription, question)
}

// Clean normalizes raw model output into a single statement: markdown
// fences are stripped regardless of language tag, whitespace runs
// collapse to single spaces, and exactly one trailing semicolon remains.
func Clean(raw string) string {
	text := stripFences(strings.TrimSpace(raw))
	text = strings.Join(strings.Fields(text), " ")
	text = strings.TrimRight(text, ";")
	text = strings.TrimSpace(text)
	return text + ";"
}

func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		// Drop the language tag line, whatever the tag is.
		if tag := strings.TrimSpace(trimmed[:newline]); isFenceTag(tag) {
			trimmed = trimmed[newline+1:]
		}
	} else {
		trimmed = strings.TrimPrefix(trimmed, "sql")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func isFenceTag(tag string) bool {
	for _, r := range tag {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
