// Package showplan extracts per-statement timings from SQL Server showplan XML documents
package showplan

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/newrelic/infra-integrations-sdk/v3/log"
	"github.com/newrelic/nri-mssql-sqlplan/src/showplan/models"
)

const (
	// Namespace is the only showplan schema recognised
	Namespace = "http://schemas.microsoft.com/sqlserver/2004/07/showplan"

	// MissingStatementText replaces a StatementText attribute that is not present
	MissingStatementText = "N/A"
)

var (
	ErrParse         = errors.New("malformed plan xml")
	ErrEmptyDocument = errors.New("plan contains no xml element")
)

var (
	rootName           = xml.Name{Space: Namespace, Local: "ShowPlanXML"}
	statementName      = xml.Name{Space: Namespace, Local: "StmtSimple"}
	queryPlanName      = xml.Name{Space: Namespace, Local: "QueryPlan"}
	queryTimeStatsName = xml.Name{Space: Namespace, Local: "QueryTimeStats"}
)

// Extract decodes and parses a raw plan document.
func Extract(raw []byte) (*models.Report, error) {
	text, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return Parse(text)
}

// Parse walks every StmtSimple element of an already decoded plan, in document order.
func Parse(text string) (*models.Report, error) {
	decoder := xml.NewDecoder(strings.NewReader(text))
	// the text is already utf-8 whatever the prolog claims
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	w := &walker{}
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if err := w.visit(token); err != nil {
			return nil, err
		}
	}

	if !w.sawRoot {
		return nil, ErrEmptyDocument
	}
	return w.report(), nil
}

type role int

const (
	roleOther role = iota
	roleStatement
	roleQueryPlan
)

type frame struct {
	role   role
	record int
}

// statement collects one StmtSimple while its children are still being read.
type statement struct {
	record   models.ExecutionRecord
	hasPlan  bool
	hasStats bool
}

type walker struct {
	stack      []frame
	statements []*statement
	sawRoot    bool
	rootClosed bool
	build      string
	version    string
}

func (w *walker) visit(token xml.Token) error {
	switch t := token.(type) {
	case xml.StartElement:
		return w.start(t)
	case xml.EndElement:
		w.stack = w.stack[:len(w.stack)-1]
		if len(w.stack) == 0 {
			w.rootClosed = true
		}
	case xml.CharData:
		if len(w.stack) == 0 && len(strings.TrimSpace(string(t))) > 0 {
			return fmt.Errorf("%w: text outside the root element", ErrParse)
		}
	}
	return nil
}

func (w *walker) start(element xml.StartElement) error {
	if len(w.stack) == 0 {
		if w.rootClosed {
			return fmt.Errorf("%w: more than one root element", ErrParse)
		}
		w.sawRoot = true
		if element.Name == rootName {
			w.build, _ = attr(element, "Build")
			w.version, _ = attr(element, "Version")
		}
	}

	next := frame{role: roleOther, record: -1}
	var parent frame
	if len(w.stack) > 0 {
		parent = w.stack[len(w.stack)-1]
	}

	switch {
	case element.Name == statementName:
		next = frame{role: roleStatement, record: len(w.statements)}
		w.statements = append(w.statements, newStatement(element))
	case element.Name == queryPlanName && parent.role == roleStatement:
		// only the first QueryPlan child of a statement counts
		if current := w.statements[parent.record]; !current.hasPlan {
			current.hasPlan = true
			next = frame{role: roleQueryPlan, record: parent.record}
		}
	case element.Name == queryTimeStatsName && parent.role == roleQueryPlan:
		if current := w.statements[parent.record]; !current.hasStats {
			current.hasStats = true
			current.record.CPUTimeMs = timeAttr(element, "CpuTime")
			current.record.ElapsedTimeMs = timeAttr(element, "ElapsedTime")
		}
	}

	w.stack = append(w.stack, next)
	return nil
}

func (w *walker) report() *models.Report {
	report := &models.Report{Build: w.build, Version: w.version}
	if w.build != "" && !HasTimeStats(w.build) {
		log.Warn("Plan build %s predates QueryTimeStats, statement timings may be zero", w.build)
	}

	for _, s := range w.statements {
		log.Debug("Statement %d: elapsed %.2f ms, cpu %.2f ms", len(report.Records)+1, s.record.ElapsedTimeMs, s.record.CPUTimeMs)
		report.Add(s.record)
	}
	return report
}

func newStatement(element xml.StartElement) *statement {
	text, ok := attr(element, "StatementText")
	if !ok {
		text = MissingStatementText
	}
	statementType, _ := attr(element, "StatementType")

	s := &statement{
		record: models.ExecutionRecord{
			QueryText:     strings.TrimSpace(text),
			StatementType: statementType,
		},
	}
	if id, ok := attr(element, "StatementId"); ok {
		s.record.StatementID, _ = strconv.Atoi(strings.TrimSpace(id))
	}
	return s
}

// attr looks up an unqualified attribute.
func attr(element xml.StartElement, name string) (string, bool) {
	for _, a := range element.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// timeAttr reads a millisecond attribute. Missing, unparseable, negative and
// non-finite values all count as zero.
func timeAttr(element xml.StartElement, name string) float64 {
	raw, ok := attr(element, name)
	if !ok {
		return 0
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		log.Warn("Ignoring %s value %q, using 0", name, raw)
		return 0
	}
	return value
}
