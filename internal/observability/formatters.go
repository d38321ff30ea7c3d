// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/datamine-exporter/internal/db"
	"github.com/jonathan/datamine-exporter/internal/spreadsheet"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = truncate(line, boxWidth-4)
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// PrintDataset outputs each sheet title with its record count.
func (p *Printer) PrintDataset(ds *spreadsheet.Dataset) {
	if ds == nil {
		return
	}

	var sb strings.Builder
	total := 0
	for _, sheet := range ds.Sheets() {
		sb.WriteString(fmt.Sprintf("%-40s %6d\n", truncate(sheet.Title, 40), len(sheet.Records)))
		total += len(sheet.Records)
	}
	sb.WriteString(fmt.Sprintf("\n%d sheets, %d records", ds.Len(), total))

	p.printBox("SHEETS", sb.String())
}

// PrintColumns outputs the normalized column titles of one sheet.
func (p *Printer) PrintColumns(title string, columns []string) {
	if len(columns) == 0 {
		return
	}

	var sb strings.Builder
	for i, column := range columns {
		sb.WriteString(fmt.Sprintf("%3d. %s", i+1, column))
		if i < len(columns)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(strings.ToUpper(title)+" COLUMNS", sb.String())
}

// PrintRecordSample outputs the first few records of a sheet as key/value lines.
func (p *Printer) PrintRecordSample(title string, records []*spreadsheet.Record) {
	if len(records) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(records), maxItemsToShow)
	for i := 0; i < count; i++ {
		for _, f := range records[i].Fields() {
			sb.WriteString(fmt.Sprintf("%s: %s\n", f.Key, describe(f.Value)))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(records) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more records", len(records)-maxItemsToShow))
	}

	p.printBox(strings.ToUpper(title)+" SAMPLE", strings.TrimSuffix(sb.String(), "\n"))
}

func describe(v spreadsheet.FieldValue) string {
	if s, ok := v.Str(); ok {
		return s
	}
	if list, ok := v.Strings(); ok {
		return "[" + strings.Join(list, ", ") + "]"
	}
	return "null"
}

// PrintExportSummary outputs the files written by an export.
func (p *Printer) PrintExportSummary(files []string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Wrote %d files:\n\n", len(files)))

	count := min(len(files), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("• %s\n", files[i]))
	}
	if len(files) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more files\n", len(files)-maxItemsToShow))
	}

	p.printBox("EXPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRuns outputs stored export runs, newest first.
func (p *Printer) PrintRuns(spreadsheetID string, runs []db.Run) {
	if len(runs) == 0 {
		p.printBox("RUNS "+spreadsheetID, "No runs stored")
		return
	}

	var sb strings.Builder
	for i, run := range runs {
		sb.WriteString(fmt.Sprintf("%s  %-9s %s", run.ID, run.Status, run.CreatedAt.Format(time.DateTime)))
		if run.ErrorMessage != nil {
			sb.WriteString(fmt.Sprintf("\n  %s", *run.ErrorMessage))
		}
		if i < len(runs)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("RUNS "+spreadsheetID, sb.String())
}

// PrintRun outputs one run with the record count of every stored sheet.
func (p *Printer) PrintRun(run *db.Run, sheets []db.SheetSummary) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Spreadsheet: %s\n", run.SpreadsheetID))
	sb.WriteString(fmt.Sprintf("Status: %s\n", run.Status))
	if run.ErrorMessage != nil {
		sb.WriteString(fmt.Sprintf("Error: %s\n", *run.ErrorMessage))
	}
	sb.WriteString("\n")
	for _, s := range sheets {
		sb.WriteString(fmt.Sprintf("%-40s %6d\n", truncate(s.Sheet, 40), s.Records))
	}

	p.printBox("RUN "+run.ID.String(), strings.TrimSuffix(sb.String(), "\n"))
}
