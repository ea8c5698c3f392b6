// Package render converts backend responses into a plain-text summary and an
// HTML table fragment.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/pkg/logger"
	"github.com/doeshing/datatalk/internal/ports"
)

const (
	// NoSummaryText replaces an absent or empty summary.
	NoSummaryText = "No summary available."
	// NoDataHTML is shown when data_result is not a non-empty array.
	NoDataHTML = "<p>No data returned.</p>"

	failureHeadHTML = "<p>Could not render rows.</p>"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape replaces the five HTML-significant characters in s.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// Rendering is the pair of outputs produced for one response, plus the rows
// the table was built from.
type Rendering struct {
	Summary   string
	TableHTML string
	Rows      []domain.Row
}

// Renderer is stateless apart from its logger; the zero value is usable.
type Renderer struct {
	Logger ports.Logger
}

// New returns a Renderer that reports recovered failures to log.
func New(log ports.Logger) *Renderer {
	return &Renderer{Logger: log}
}

// Render produces both outputs for resp.
func (r *Renderer) Render(resp domain.QueryResponse) Rendering {
	table, rows := r.Table(resp.DataResult)
	return Rendering{
		Summary:   r.Summary(resp),
		TableHTML: table,
		Rows:      rows,
	}
}

// Summary returns the response summary as text, or NoSummaryText when the
// summary is missing, null, false, 0 or empty.
func (r *Renderer) Summary(resp domain.QueryResponse) string {
	if len(bytes.TrimSpace(resp.Summary)) == 0 {
		return NoSummaryText
	}
	v, err := domain.DecodeValue(resp.Summary)
	if err != nil {
		r.log().Warn("summary is not valid JSON", map[string]interface{}{"error": err.Error()})
		return NoSummaryText
	}
	if !domain.Truthy(v) {
		return NoSummaryText
	}
	return domain.Stringify(v)
}

// Table builds the HTML table for a raw data_result payload. It never panics
// and never fails: problems are rendered inline.
func (r *Renderer) Table(raw []byte) (html string, rows []domain.Row) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%v", rec)
			r.log().Warn("row rendering panicked", map[string]interface{}{"error": err.Error()})
			html, rows = failureHTML(err, raw), nil
		}
	}()

	rows, isSequence, err := ParseRows(raw)
	if err != nil {
		r.log().Warn("could not render rows", map[string]interface{}{
			"error":     err.Error(),
			"raw_bytes": len(raw),
		})
		return failureHTML(err, raw), nil
	}
	if !isSequence {
		if looksLikeString(raw) {
			r.log().Debug("data_result is a string; list literals are not parsed", nil)
		}
		return NoDataHTML, nil
	}
	if len(rows) == 0 {
		return NoDataHTML, nil
	}
	return TableHTML(rows), rows
}

// ParseRows resolves every element of a JSON array into a row. isSequence is
// false when raw is absent or is not an array; that is not an error.
func ParseRows(raw []byte) (rows []domain.Row, isSequence bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false, nil
	}
	v, err := domain.DecodeValue(trimmed)
	if err != nil {
		return nil, true, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, true, errors.New("data_result is not an array")
	}
	rows = make([]domain.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, domain.ResolveRow(item))
	}
	return rows, true, nil
}

// TableHTML renders rows without headers; every cell is escaped.
func TableHTML(rows []domain.Row) string {
	var b strings.Builder
	b.WriteString("<table>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row.Cells() {
			b.WriteString("<td>")
			b.WriteString(Escape(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

func failureHTML(err error, raw []byte) string {
	var b strings.Builder
	b.WriteString(failureHeadHTML)
	b.WriteString("<pre>")
	b.WriteString(Escape(err.Error()))
	b.WriteString("</pre>")
	if len(bytes.TrimSpace(raw)) > 0 {
		b.WriteString("<pre>")
		b.WriteString(Escape(string(raw)))
		b.WriteString("</pre>")
	}
	return b.String()
}

func looksLikeString(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

func (r *Renderer) log() ports.Logger {
	if r == nil || r.Logger == nil {
		return logger.NewNop()
	}
	return r.Logger
}

var _ ports.ResponseRenderer = (*Renderer)(nil)
