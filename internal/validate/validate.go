// Package validate enforces the read-only, single-statement contract on
// generated SQL before it may touch the store. It deliberately does not
// trust the generator: the SELECT prefix is re-checked here even though
// the generator already rejects non-SELECT output.
package validate

import (
	"strings"
)

// Reason identifies which validation rule rejected a statement. Callers
// branch on these codes instead of matching message strings.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonEmptyStatement     Reason = "empty_statement"
	ReasonNotSelect          Reason = "not_select"
	ReasonForbiddenKeyword   Reason = "forbidden_keyword"
	ReasonMultipleStatements Reason = "multiple_statements"
)

// Verdict is the outcome of validating one cleaned statement. Keyword is
// populated only for ReasonForbiddenKeyword.
type Verdict struct {
	Accepted bool
	Reason   Reason
	Keyword  string
}

func accepted() Verdict { return Verdict{Accepted: true} }

func rejected(r Reason) Verdict { return Verdict{Reason: r} }

func rejectedKeyword(k string) Verdict {
	return Verdict{Reason: ReasonForbiddenKeyword, Keyword: k}
}

var forbiddenKeywords = map[string]bool{
	"insert":   true,
	"update":   true,
	"delete":   true,
	"drop":     true,
	"alter":    true,
	"create":   true,
	"truncate": true,
	"attach":   true,
	"detach":   true,
	"pragma":   true,
	"vacuum":   true,
	"reindex":  true,
}

// Validate applies the safety rules in order; the first failure wins.
// It is a pure function: the same input always yields the same verdict.
func Validate(sqlText string) Verdict {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return rejected(ReasonEmptyStatement)
	}

	tokens, terminators := scan(trimmed)
	if len(tokens) == 0 || strings.ToLower(tokens[0]) != "select" {
		return rejected(ReasonNotSelect)
	}

	// Statement chaining is rejected before the keyword scan, so a
	// forbidden keyword after an interior terminator reports as chaining.
	for _, pos := range terminators {
		if strings.TrimSpace(trimmed[pos+1:]) != "" {
			return rejected(ReasonMultipleStatements)
		}
	}

	for i, token := range tokens {
		lower := strings.ToLower(token)
		if forbiddenKeywords[lower] {
			return rejectedKeyword(lower)
		}
		// REPLACE doubles as a string function in SQLite; only the
		// statement form REPLACE INTO is destructive.
		if lower == "replace" && i+1 < len(tokens) && strings.ToLower(tokens[i+1]) == "into" {
			return rejectedKeyword("replace")
		}
	}
	return accepted()
}

// scan splits the statement into word tokens and records the byte
// positions of statement terminators, skipping the contents of
// single-quoted string literals (a doubled quote escapes a quote).
func scan(sqlText string) (tokens []string, terminators []int) {
	var current strings.Builder
	inLiteral := false
	for i := 0; i < len(sqlText); i++ {
		c := sqlText[i]
		if inLiteral {
			if c == '\'' {
				if i+1 < len(sqlText) && sqlText[i+1] == '\'' {
					i++
					continue
				}
				inLiteral = false
			}
			continue
		}
		switch {
		case c == '\'':
			inLiteral = true
		case c == ';':
			terminators = append(terminators, i)
		case isWordByte(c):
			current.WriteByte(c)
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens, terminators
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}
