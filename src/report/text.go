// Package report renders extracted plan timings for people and for machines
package report

import (
	"fmt"
	"strings"

	"github.com/newrelic/nri-mssql-sqlplan/src/showplan/models"
)

const (
	// DefaultFileName is the name the rendered report is saved or downloaded under
	DefaultFileName = "execution_times.txt"
	// ContentType of the text report
	ContentType = "text/plain"

	// SnippetLength is the number of characters of statement text shown per query
	SnippetLength = 150

	ruler = "========================================"
)

// FormatText renders the fixed layout text report. Every snippet ends with "..."
// whether or not the statement was cut.
func FormatText(report *models.Report) string {
	var b strings.Builder

	b.WriteString("\n=== Query-wise Execution Time Details ===\n")
	for i, record := range report.Records {
		fmt.Fprintf(&b, "\nQuery %d:\n", i+1)
		fmt.Fprintf(&b, "Elapsed Time   : %.2f ms\n", record.ElapsedTimeMs)
		fmt.Fprintf(&b, "CPU Time       : %.2f ms\n", record.CPUTimeMs)
		fmt.Fprintf(&b, "Query Snippet  : %s...\n", Snippet(record.QueryText))
	}

	b.WriteString("\n" + ruler + "\n")
	fmt.Fprintf(&b, "Total Execution Time (Sum of Queries): %.2f ms\n", report.TotalTimeMs)
	b.WriteString(ruler + "\n")

	return b.String()
}

// Snippet returns at most SnippetLength characters of text.
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= SnippetLength {
		return text
	}
	return string(runes[:SnippetLength])
}

// FailureMessage is the single user visible message for any processing error.
func FailureMessage(err error) string {
	return fmt.Sprintf("Failed to process file: %s", err)
}
