package domain

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
)

// QueryRequest is the JSON body posted to the backend /query endpoint.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the decoded backend body. Summary and DataResult are kept
// raw because the backend does not guarantee their shape.
type QueryResponse struct {
	Question   string          `json:"question,omitempty"`
	Summary    json.RawMessage `json:"summary,omitempty"`
	DataResult json.RawMessage `json:"data_result,omitempty"`
}

// NormalizeQuestion trims user input. ok is false for blank input, which must
// never reach the backend. The trimmed set matches the browser's
// String.prototype.trim so the page and the server agree on blank.
func NormalizeQuestion(input string) (question string, ok bool) {
	question = strings.TrimFunc(input, isTrimSpace)
	return question, question != ""
}

// isTrimSpace is unicode.IsSpace plus BOM, minus NEL.
func isTrimSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// Outcome is what a single sent submission produced.
type Outcome struct {
	Question  string
	Summary   string
	TableHTML string
	Rows      []Row
	Err       error
	FromCache bool
	Duration  time.Duration
}

// Failed reports whether the submission ended in a transport or HTTP error.
func (o Outcome) Failed() bool {
	return o.Err != nil
}
