package models

// Report is the result of extracting one plan document.
// TotalTimeMs is always the sum of the records' ElapsedTimeMs.
type Report struct {
	Records     []ExecutionRecord
	TotalTimeMs float64

	// Build and Version come from the ShowPlanXML root element.
	Build   string
	Version string
}

// Add appends a record and keeps the running total in step.
func (r *Report) Add(record ExecutionRecord) {
	r.Records = append(r.Records, record)
	r.TotalTimeMs += record.ElapsedTimeMs
}

// PlanDocument is a raw plan waiting to be extracted, tagged with where it came from.
type PlanDocument struct {
	Source string
	Data   []byte
}

// SourceReport pairs a report with the plan it was extracted from.
type SourceReport struct {
	Source string
	Report *Report
}
