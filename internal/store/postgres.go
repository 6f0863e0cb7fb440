package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/futurelens/futurelens/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Analyses ---

func (s *PostgresStore) CreateAnalysis(ctx context.Context, a *models.Analysis) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO analyses (company_name, status)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		a.CompanyName, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id int64) (*models.Analysis, error) {
	var a models.Analysis
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_name, status, company_context, created_at, updated_at
		 FROM analyses WHERE id = $1`, id,
	).Scan(&a.ID, &a.CompanyName, &a.Status, &a.CompanyContext, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context) ([]*models.Analysis, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_name, status, company_context, created_at, updated_at
		 FROM analyses ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []*models.Analysis
	for rows.Next() {
		var a models.Analysis
		if err := rows.Scan(&a.ID, &a.CompanyName, &a.Status, &a.CompanyContext,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateAnalysisStatus(ctx context.Context, id int64, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE analyses SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update analysis status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Pipeline results ---

func (s *PostgresStore) SaveResults(ctx context.Context, analysisID int64, res Results) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save results: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE analyses SET company_context = $2, updated_at = NOW() WHERE id = $1`,
		analysisID, res.CompanyContext)
	if err != nil {
		return fmt.Errorf("save company context: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	for _, q := range res.Queries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO search_queries (analysis_id, query, results) VALUES ($1, $2, $3)`,
			analysisID, q.Query, q.Results); err != nil {
			return fmt.Errorf("save search query: %w", err)
		}
	}

	for _, sc := range res.Scenarios {
		var scenarioID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO scenarios (analysis_id, scenario_number, title, description, timeline, key_assumptions, likelihood)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			analysisID, sc.ScenarioNumber, sc.Title, sc.Description,
			sc.Timeline, sc.KeyAssumptions, sc.Likelihood,
		).Scan(&scenarioID)
		if err != nil {
			return fmt.Errorf("save scenario %d: %w", sc.ScenarioNumber, err)
		}

		for _, st := range res.Strategies[sc.ScenarioNumber] {
			if _, err := tx.Exec(ctx,
				`INSERT INTO strategies (scenario_id, name, description, expected_impact, key_risks)
				 VALUES ($1, $2, $3, $4, $5)`,
				scenarioID, st.Name, st.Description, st.ExpectedImpact, st.KeyRisks); err != nil {
				return fmt.Errorf("save strategy for scenario %d: %w", sc.ScenarioNumber, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save results: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListScenarios(ctx context.Context, analysisID int64) ([]*models.Scenario, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, analysis_id, scenario_number, title, description, timeline, key_assumptions, likelihood, created_at
		 FROM scenarios WHERE analysis_id = $1 ORDER BY scenario_number`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	var out []*models.Scenario
	for rows.Next() {
		var sc models.Scenario
		if err := rows.Scan(&sc.ID, &sc.AnalysisID, &sc.ScenarioNumber, &sc.Title,
			&sc.Description, &sc.Timeline, &sc.KeyAssumptions, &sc.Likelihood,
			&sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		out = append(out, &sc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListStrategies(ctx context.Context, scenarioID int64) ([]*models.Strategy, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, scenario_id, name, description, expected_impact, key_risks, created_at
		 FROM strategies WHERE scenario_id = $1 ORDER BY id`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()

	var out []*models.Strategy
	for rows.Next() {
		var st models.Strategy
		if err := rows.Scan(&st.ID, &st.ScenarioID, &st.Name, &st.Description,
			&st.ExpectedImpact, &st.KeyRisks, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan strategy: %w", err)
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListSearchQueries(ctx context.Context, analysisID int64) ([]*models.SearchQuery, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, analysis_id, query, results, created_at
		 FROM search_queries WHERE analysis_id = $1 ORDER BY id`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("list search queries: %w", err)
	}
	defer rows.Close()

	var out []*models.SearchQuery
	for rows.Next() {
		var q models.SearchQuery
		if err := rows.Scan(&q.ID, &q.AnalysisID, &q.Query, &q.Results, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search query: %w", err)
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
