package models

import "time"

// Scenario is one plausible future for the analyzed company. Four are
// generated per analysis by design target; the store tolerates 2–6. Created
// in one batch when the scenario stage completes, immutable thereafter.
type Scenario struct {
	ID             int64     `db:"id"              json:"id"`
	AnalysisID     int64     `db:"analysis_id"     json:"analysis_id"`
	ScenarioNumber int       `db:"scenario_number" json:"scenario_number"`
	Title          string    `db:"title"           json:"title"`
	Description    string    `db:"description"     json:"description"`
	Timeline       *string   `db:"timeline"        json:"timeline,omitempty"`
	KeyAssumptions *string   `db:"key_assumptions" json:"key_assumptions,omitempty"`
	Likelihood     *float64  `db:"likelihood"      json:"likelihood,omitempty"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}
