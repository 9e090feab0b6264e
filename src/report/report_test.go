package report

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newrelic/nri-mssql-sqlplan/src/showplan/models"
)

var update = flag.Bool("update", false, "update .golden files")

func twoStatementReport() *models.Report {
	report := &models.Report{Build: "16.0.1000.6", Version: "1.564"}
	report.Add(models.ExecutionRecord{
		QueryText:     "SELECT TOP 1 * FROM Sales.Orders",
		CPUTimeMs:     10.0,
		ElapsedTimeMs: 12.5,
		StatementType: "SELECT",
		StatementID:   1,
	})
	report.Add(models.ExecutionRecord{
		QueryText:     "UPDATE Sales.Orders SET Status = 2 WHERE OrderId = 42",
		CPUTimeMs:     5.0,
		ElapsedTimeMs: 7.25,
		StatementType: "UPDATE",
		StatementID:   2,
	})
	return report
}

func TestFormatText_Golden(t *testing.T) {
	goldenFile := filepath.Join("testdata", "two_statements.golden")
	actual := FormatText(twoStatementReport())

	if *update {
		require.NoError(t, os.WriteFile(goldenFile, []byte(actual), 0600))
	}

	expected, err := os.ReadFile(goldenFile)
	require.NoError(t, err)
	assert.Equal(t, string(expected), actual)
	assert.Contains(t, actual, "Total Execution Time (Sum of Queries): 19.75 ms")
	assert.Equal(t, 2, strings.Count(actual, "\nQuery "))
}

func TestFormatText_Empty(t *testing.T) {
	expected := "\n=== Query-wise Execution Time Details ===\n" +
		"\n========================================\n" +
		"Total Execution Time (Sum of Queries): 0.00 ms\n" +
		"========================================\n"

	assert.Equal(t, expected, FormatText(&models.Report{}))
}

func TestFormatText_Deterministic(t *testing.T) {
	assert.Equal(t, FormatText(twoStatementReport()), FormatText(twoStatementReport()))
}

func TestFormatText_Rounding(t *testing.T) {
	report := &models.Report{}
	report.Add(models.ExecutionRecord{QueryText: "SELECT 1", CPUTimeMs: 0.005, ElapsedTimeMs: 1234.567})

	text := FormatText(report)
	assert.Contains(t, text, "Elapsed Time   : 1234.57 ms\n")
	assert.Contains(t, text, "CPU Time       : 0.01 ms\n")
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("a", 200)
	exact := strings.Repeat("b", SnippetLength)
	wide := strings.Repeat("é", 151)

	testCases := []struct {
		name string
		text string
		want string
	}{
		{"Longer than limit", long, long[:SnippetLength]},
		{"Exactly at limit", exact, exact},
		{"Short", "SELECT 1", "SELECT 1"},
		{"Empty", "", ""},
		{"Counts characters not bytes", wide, strings.Repeat("é", SnippetLength)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Snippet(tc.text))
		})
	}
}

func TestFormatText_EllipsisAlwaysAppended(t *testing.T) {
	report := &models.Report{}
	report.Add(models.ExecutionRecord{QueryText: strings.Repeat("x", 151)})
	report.Add(models.ExecutionRecord{QueryText: "short"})

	text := FormatText(report)
	assert.Contains(t, text, "Query Snippet  : "+strings.Repeat("x", SnippetLength)+"...\n")
	assert.Contains(t, text, "Query Snippet  : short...\n")
}

func TestFormatJSON_MatchesSchema(t *testing.T) {
	data, err := FormatJSON("two_statements.sqlplan", twoStatementReport())
	require.NoError(t, err)
	require.NoError(t, ValidateJSON(data))

	assert.Contains(t, string(data), `"query": 1`)
	assert.Contains(t, string(data), `"total_time_ms": 19.75`)
	assert.Contains(t, string(data), `"source": "two_statements.sqlplan"`)
}

func TestFormatJSON_EmptyReportHasQueryArray(t *testing.T) {
	data, err := FormatJSON("", &models.Report{})
	require.NoError(t, err)
	require.NoError(t, ValidateJSON(data))
	assert.Contains(t, string(data), `"queries": []`)
}

func TestValidateJSON_Rejects(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"Missing total", `{"queries": []}`},
		{"Negative time", `{"queries": [{"query": 1, "query_text": "x", "cpu_time_ms": -1, "elapsed_time_ms": 0}], "total_time_ms": 0}`},
		{"Unknown field", `{"queries": [], "total_time_ms": 0, "extra": true}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateJSON([]byte(tc.data))
			assert.True(t, errors.Is(err, ErrSchemaViolation), "got %v", err)
		})
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	content := []byte(FormatText(twoStatementReport()))

	require.NoError(t, WriteFile(path, content))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, written)
}

func TestWriteFile_BadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", DefaultFileName)
	assert.Error(t, WriteFile(path, []byte("x")))
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "Failed to process file: boom", FailureMessage(errors.New("boom")))
}
