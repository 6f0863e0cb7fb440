// Package models contains shared data models used across the FutureLens codebase.
package models

import "time"

const (
	AnalysisStatusPending    = "pending"
	AnalysisStatusProcessing = "processing"
	AnalysisStatusCompleted  = "completed"
	AnalysisStatusFailed     = "failed"
)

// TerminalStatus reports whether a status admits no further transition.
func TerminalStatus(status string) bool {
	return status == AnalysisStatusCompleted || status == AnalysisStatusFailed
}

// Analysis tracks one end-to-end run of the research→scenarios→strategies
// pipeline for one company. The API returns the record with status "pending"
// on POST /api/v1/analyses; the client polls or streams until the status is
// completed or failed. Status moves pending→processing→{completed|failed} and
// never leaves a terminal state.
type Analysis struct {
	ID             int64     `db:"id"              json:"id"`
	CompanyName    string    `db:"company_name"    json:"company_name"`
	Status         string    `db:"status"          json:"status"`
	CompanyContext *string   `db:"company_context" json:"company_context,omitempty"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"      json:"updated_at"`
}
