package models

import "time"

// Strategy is one strategic response to a scenario. Two to three per scenario
// by design target, written in one batch per scenario, immutable thereafter.
type Strategy struct {
	ID             int64     `db:"id"              json:"id"`
	ScenarioID     int64     `db:"scenario_id"     json:"scenario_id"`
	Name           string    `db:"name"            json:"name"`
	Description    string    `db:"description"     json:"description"`
	ExpectedImpact *string   `db:"expected_impact" json:"expected_impact,omitempty"`
	KeyRisks       *string   `db:"key_risks"       json:"key_risks,omitempty"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}
