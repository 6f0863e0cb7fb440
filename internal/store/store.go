package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/futurelens/futurelens/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateAnalysis(ctx context.Context, a *models.Analysis) error
	GetAnalysis(ctx context.Context, id int64) (*models.Analysis, error)
	ListAnalyses(ctx context.Context) ([]*models.Analysis, error)
	UpdateAnalysisStatus(ctx context.Context, id int64, status string) error

	// SaveResults persists everything a completed pipeline produced — the
	// synthesized company context, one search_queries row per research
	// question, the scenario batch, and each scenario's strategies — inside a
	// single transaction. Strategies are keyed by scenario_number.
	SaveResults(ctx context.Context, analysisID int64, res Results) error

	ListScenarios(ctx context.Context, analysisID int64) ([]*models.Scenario, error)
	ListStrategies(ctx context.Context, scenarioID int64) ([]*models.Strategy, error)
	ListSearchQueries(ctx context.Context, analysisID int64) ([]*models.SearchQuery, error)
}

// Results is the input to SaveResults.
type Results struct {
	CompanyContext string
	Queries        []QueryRecord
	Scenarios      []models.Scenario
	Strategies     map[int][]models.Strategy
}

// QueryRecord pairs one research question with its raw search payload.
type QueryRecord struct {
	Query   string
	Results json.RawMessage
}
