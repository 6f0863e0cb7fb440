package models

import (
	"encoding/json"
	"time"
)

// SearchQuery records one research question and the raw web-search payload it
// produced. One row per question regardless of outcome; a failed search is
// stored with an empty results array.
type SearchQuery struct {
	ID         int64           `db:"id"          json:"id"`
	AnalysisID int64           `db:"analysis_id" json:"analysis_id"`
	Query      string          `db:"query"       json:"query"`
	Results    json.RawMessage `db:"results"     json:"results,omitempty"`
	CreatedAt  time.Time       `db:"created_at"  json:"created_at"`
}
