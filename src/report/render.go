package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/newrelic/nri-mssql-sqlplan/src/showplan/models"
)

const (
	TextFormat = "text"
	JSONFormat = "json"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Render renders every report in the requested format. A single report renders
// exactly as FormatText or FormatJSON would; several are labelled with their
// source (text) or wrapped in an array (json).
func Render(format string, reports []models.SourceReport) ([]byte, error) {
	switch format {
	case TextFormat:
		return []byte(renderText(reports)), nil
	case JSONFormat:
		return renderJSON(reports)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func renderText(reports []models.SourceReport) string {
	if len(reports) == 1 {
		return FormatText(reports[0].Report)
	}

	var b strings.Builder
	for _, sr := range reports {
		b.WriteString("Plan: " + sr.Source + "\n")
		b.WriteString(FormatText(sr.Report))
		b.WriteString("\n")
	}
	return b.String()
}

func renderJSON(reports []models.SourceReport) ([]byte, error) {
	if len(reports) == 1 {
		return FormatJSON(reports[0].Source, reports[0].Report)
	}

	out := make([]jsonReport, 0, len(reports))
	for _, sr := range reports {
		out = append(out, toJSON(sr.Source, sr.Report))
	}
	return marshal(out)
}
