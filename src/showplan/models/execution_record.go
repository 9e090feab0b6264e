package models

// ExecutionRecord holds the timings of a single statement found in a plan.
type ExecutionRecord struct {
	QueryText     string  `json:"query_text"`
	CPUTimeMs     float64 `json:"cpu_time_ms"`
	ElapsedTimeMs float64 `json:"elapsed_time_ms"`
	StatementType string  `json:"statement_type,omitempty"`
	StatementID   int     `json:"statement_id,omitempty"`
}
