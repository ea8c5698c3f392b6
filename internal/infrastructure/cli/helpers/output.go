package helpers

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/doeshing/datatalk/internal/domain"
)

// PrintOutcome writes a submission result. In HTML mode the renderer's table
// fragment is printed verbatim; otherwise the rows are drawn as a text table.
func PrintOutcome(out io.Writer, outcome domain.Outcome, html bool) error {
	fmt.Fprintln(out, outcome.Summary)
	if outcome.Failed() {
		return nil
	}
	if outcome.FromCache {
		pterm.Fprintln(out, pterm.Gray("(served from cache)"))
	}
	if html {
		fmt.Fprintln(out, outcome.TableHTML)
		return nil
	}
	if len(outcome.Rows) == 0 {
		fmt.Fprintln(out, "No data returned.")
		return nil
	}
	table, err := pterm.DefaultTable.WithBoxed().WithData(RowsTable(outcome.Rows)).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintln(out, table)
	return nil
}

// RowsTable pads ragged rows to a rectangle so they draw as one table.
func RowsTable(rows []domain.Row) pterm.TableData {
	width := 0
	for _, row := range rows {
		if n := len(row.Cells()); n > width {
			width = n
		}
	}
	data := make(pterm.TableData, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, width)
		copy(cells, row.Cells())
		data = append(data, cells)
	}
	return data
}

// PrintHealthReport writes one line per doctor check.
func PrintHealthReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		var status string
		switch check.Status {
		case domain.HealthOK:
			status = pterm.FgGreen.Sprint("OK")
		case domain.HealthWarn:
			status = pterm.FgYellow.Sprint("WARN")
		default:
			status = pterm.FgRed.Sprint("ERROR")
		}
		pterm.Fprintln(out, fmt.Sprintf("[%s] %s - %s", status, check.Name, check.Details))
	}
}

// ExchangesTable lays history records out for pterm.
func ExchangesTable(records []domain.Exchange) pterm.TableData {
	data := pterm.TableData{{"Time", "Status", "Rows", "Question", "Summary"}}
	for _, rec := range records {
		data = append(data, []string{
			rec.Timestamp.Local().Format(domain.TimestampFormat),
			string(rec.Status),
			fmt.Sprint(rec.RowCount),
			Truncate(rec.Question, 60),
			Truncate(rec.Summary, 60),
		})
	}
	return data
}

// Truncate shortens s to at most max runes.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
