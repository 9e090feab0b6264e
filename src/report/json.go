package report

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/newrelic/nri-mssql-sqlplan/src/showplan/models"
)

// JSONContentType of the json report
const JSONContentType = "application/json"

var ErrSchemaViolation = errors.New("report does not match schema")

//go:embed report_schema.json
var reportSchema string

type jsonQuery struct {
	Query int `json:"query"`
	models.ExecutionRecord
}

type jsonReport struct {
	Source      string      `json:"source,omitempty"`
	Build       string      `json:"build,omitempty"`
	Version     string      `json:"version,omitempty"`
	TotalTimeMs float64     `json:"total_time_ms"`
	Queries     []jsonQuery `json:"queries"`
}

// FormatJSON renders the report as indented json. Queries keep document order
// and carry the same 1-based number as the text report.
func FormatJSON(source string, report *models.Report) ([]byte, error) {
	return marshal(toJSON(source, report))
}

func toJSON(source string, report *models.Report) jsonReport {
	out := jsonReport{
		Source:      source,
		Build:       report.Build,
		Version:     report.Version,
		TotalTimeMs: report.TotalTimeMs,
		Queries:     make([]jsonQuery, 0, len(report.Records)),
	}
	for i, record := range report.Records {
		out.Queries = append(out.Queries, jsonQuery{Query: i + 1, ExecutionRecord: record})
	}
	return out
}

func marshal(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error marshaling report: %w", err)
	}
	return data, nil
}

// ValidateJSON checks a json report against the bundled schema.
func ValidateJSON(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(reportSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("error loading JSON schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(details, "; "))
}
