package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/futurelens/futurelens/internal/agent"
	"github.com/futurelens/futurelens/internal/analysis"
	"github.com/futurelens/futurelens/internal/llm"
	"github.com/futurelens/futurelens/internal/pipeline"
	"github.com/futurelens/futurelens/internal/store"
	"github.com/futurelens/futurelens/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory store.Store for service tests.
type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	analyses   map[int64]*models.Analysis
	results    map[int64]store.Results
	statusErr  error
	resultsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		analyses: make(map[int64]*models.Analysis),
		results:  make(map[int64]store.Results),
	}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) CreateAnalysis(_ context.Context, a *models.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	clone := *a
	f.analyses[a.ID] = &clone
	return nil
}

func (f *fakeStore) GetAnalysis(_ context.Context, id int64) (*models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.analyses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (f *fakeStore) ListAnalyses(context.Context) ([]*models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Analysis, 0, len(f.analyses))
	for id := f.nextID; id >= 1; id-- {
		if a, ok := f.analyses[id]; ok {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateAnalysisStatus(_ context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	a, ok := f.analyses[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeStore) SaveResults(_ context.Context, analysisID int64, res store.Results) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resultsErr != nil {
		return f.resultsErr
	}
	a, ok := f.analyses[analysisID]
	if !ok {
		return store.ErrNotFound
	}
	ctx := res.CompanyContext
	a.CompanyContext = &ctx
	f.results[analysisID] = res
	return nil
}

func (f *fakeStore) ListScenarios(_ context.Context, analysisID int64) ([]*models.Scenario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[analysisID]
	if !ok {
		return nil, nil
	}
	out := make([]*models.Scenario, 0, len(res.Scenarios))
	for i := range res.Scenarios {
		sc := res.Scenarios[i]
		sc.ID = int64(sc.ScenarioNumber)
		out = append(out, &sc)
	}
	return out, nil
}

func (f *fakeStore) ListStrategies(_ context.Context, scenarioID int64) ([]*models.Strategy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, res := range f.results {
		if set, ok := res.Strategies[int(scenarioID)]; ok {
			out := make([]*models.Strategy, 0, len(set))
			for i := range set {
				st := set[i]
				out = append(out, &st)
			}
			return out, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListSearchQueries(_ context.Context, analysisID int64) ([]*models.SearchQuery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[analysisID]
	if !ok {
		return nil, nil
	}
	out := make([]*models.SearchQuery, 0, len(res.Queries))
	for _, q := range res.Queries {
		out = append(out, &models.SearchQuery{AnalysisID: analysisID, Query: q.Query, Results: q.Results})
	}
	return out, nil
}

func (f *fakeStore) status(t *testing.T, id int64) string {
	t.Helper()
	a, err := f.GetAnalysis(context.Background(), id)
	require.NoError(t, err)
	return a.Status
}

func (f *fakeStore) savedResults(id int64) (store.Results, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[id]
	return res, ok
}

// fakeCache is an in-memory cache.Cache.
type fakeCache struct {
	mu       sync.Mutex
	statuses map[int64]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{statuses: make(map[int64]string)}
}

func (f *fakeCache) Ping(context.Context) error { return nil }

func (f *fakeCache) SetAnalysisStatus(_ context.Context, id int64, status string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	return nil
}

func (f *fakeCache) GetAnalysisStatus(_ context.Context, id int64) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.statuses[id]
	return s, ok, nil
}

func (f *fakeCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 1, nil
}

func (f *fakeCache) Close() error { return nil }

// stubStages implements pipeline.StageRunner.
type stubStages struct {
	researchFunc   func(ctx context.Context, companyName string) (*agent.ResearchResult, error)
	strategiesFunc func(ctx context.Context, companyName, companyContext string, scenario models.Scenario) ([]models.Strategy, error)
}

func (s *stubStages) Research(ctx context.Context, companyName string) (*agent.ResearchResult, error) {
	if s.researchFunc != nil {
		return s.researchFunc(ctx, companyName)
	}
	return &agent.ResearchResult{
		Questions:      []string{"q1"},
		Findings:       []agent.QueryFindings{{Question: "q1", Results: []models.SearchResult{{Title: "t", URL: "u", Content: "c"}}}},
		CompanyContext: "synthesized context",
	}, nil
}

func (s *stubStages) GenerateScenarios(_ context.Context, _, _ string) ([]models.Scenario, error) {
	return []models.Scenario{
		{ScenarioNumber: 1, Title: "S1", Description: "d"},
		{ScenarioNumber: 2, Title: "S2", Description: "d"},
	}, nil
}

func (s *stubStages) GenerateStrategies(ctx context.Context, companyName, companyContext string, scenario models.Scenario) ([]models.Strategy, error) {
	if s.strategiesFunc != nil {
		return s.strategiesFunc(ctx, companyName, companyContext, scenario)
	}
	return []models.Strategy{{Name: "strategy", Description: "d"}}, nil
}

func newService(st store.Store, ca *fakeCache, reg *analysis.Registry, stages pipeline.StageRunner) *analysis.Service {
	return analysis.NewService(context.Background(), st, ca, reg, stages, nil)
}

func waitForTerminal(t *testing.T, st *fakeStore, id int64) string {
	t.Helper()
	require.Eventually(t, func() bool {
		return models.TerminalStatus(st.status(t, id))
	}, 5*time.Second, 10*time.Millisecond)
	return st.status(t, id)
}

func TestTrigger_CreatesPendingAndReturnsImmediately(t *testing.T) {
	st := newFakeStore()
	reg := analysis.NewRegistry()
	svc := newService(st, newFakeCache(), reg, &stubStages{
		researchFunc: func(ctx context.Context, _ string) (*agent.ResearchResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	a, err := svc.Trigger(context.Background(), "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusPending, a.Status)
	assert.NotZero(t, a.ID)

	// The live channel exists from the moment of the trigger.
	_, ok := analysisChannel(reg, a.ID)
	assert.True(t, ok)
}

func analysisChannel(reg *analysis.Registry, id int64) (chan analysis.Event, bool) {
	return reg.Lookup(id)
}

func TestTrigger_RejectsBlankCompanyName(t *testing.T) {
	svc := newService(newFakeStore(), newFakeCache(), analysis.NewRegistry(), &stubStages{})

	_, err := svc.Trigger(context.Background(), "   ")
	assert.Error(t, err)
}

func TestRun_ConvergesToCompleted(t *testing.T) {
	st := newFakeStore()
	ca := newFakeCache()
	svc := newService(st, ca, analysis.NewRegistry(), &stubStages{})

	a, err := svc.Trigger(context.Background(), "Acme Corp")
	require.NoError(t, err)

	status := waitForTerminal(t, st, a.ID)
	assert.Equal(t, models.AnalysisStatusCompleted, status)

	res, ok := st.savedResults(a.ID)
	require.True(t, ok)
	assert.Equal(t, "synthesized context", res.CompanyContext)
	require.Len(t, res.Scenarios, 2)
	assert.Len(t, res.Strategies, 2)
	require.Len(t, res.Queries, 1)
	assert.JSONEq(t, `[{"title":"t","url":"u","content":"c"}]`, string(res.Queries[0].Results))

	// Cache mirrors the terminal status.
	cached, found := svc.CachedStatus(context.Background(), a.ID)
	assert.True(t, found)
	assert.Equal(t, models.AnalysisStatusCompleted, cached)
}

func TestRun_EmitsEventsEndingInFinalCompletion(t *testing.T) {
	st := newFakeStore()
	svc := newService(st, newFakeCache(), analysis.NewRegistry(), &stubStages{})

	a, err := svc.Trigger(context.Background(), "Acme Corp")
	require.NoError(t, err)
	ch := svc.Subscribe(a.ID)

	deadline := time.After(5 * time.Second)
	var types []string
	for {
		select {
		case e := <-ch:
			types = append(types, e.Type)
			// Pipeline completion plus the post-persistence completion.
			if len(types) >= 2 &&
				types[len(types)-1] == pipeline.EventAnalysisComplete &&
				types[len(types)-2] == pipeline.EventAnalysisComplete {
				assert.Equal(t, pipeline.EventAnalysisStart, types[0])
				return
			}
		case <-deadline:
			t.Fatalf("never saw the final completion events, got %v", types)
		}
	}
}

func TestRun_StrategyFailureFailsAnalysisWithoutPartialResults(t *testing.T) {
	st := newFakeStore()
	stageErr := errors.New("strategies exploded")
	svc := newService(st, newFakeCache(), analysis.NewRegistry(), &stubStages{
		strategiesFunc: func(_ context.Context, _, _ string, scenario models.Scenario) ([]models.Strategy, error) {
			if scenario.ScenarioNumber == 2 {
				return nil, stageErr
			}
			return []models.Strategy{{Name: "s", Description: "d"}}, nil
		},
	})

	a, err := svc.Trigger(context.Background(), "Acme Corp")
	require.NoError(t, err)
	ch := svc.Subscribe(a.ID)

	status := waitForTerminal(t, st, a.ID)
	assert.Equal(t, models.AnalysisStatusFailed, status)

	// Nothing was persisted for the failed run.
	_, ok := st.savedResults(a.ID)
	assert.False(t, ok)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Type == pipeline.EventAnalysisFailed {
				assert.Contains(t, e.Message, "strategies exploded")
				return
			}
		case <-deadline:
			t.Fatal("never saw the failure event")
		}
	}
}

func TestRun_GeneratorUnavailableYieldsStableFailureReason(t *testing.T) {
	st := newFakeStore()
	svc := newService(st, newFakeCache(), analysis.NewRegistry(), &stubStages{
		strategiesFunc: func(context.Context, string, string, models.Scenario) ([]models.Strategy, error) {
			return nil, fmt.Errorf("generating strategies for scenario 1: %w", llm.ErrGeneratorUnavailable)
		},
	})

	a, err := svc.Trigger(context.Background(), "Acme Corp")
	require.NoError(t, err)
	ch := svc.Subscribe(a.ID)

	status := waitForTerminal(t, st, a.ID)
	assert.Equal(t, models.AnalysisStatusFailed, status)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Type == pipeline.EventAnalysisFailed {
				assert.Contains(t, e.Message, "text generation backend unavailable")
				return
			}
		case <-deadline:
			t.Fatal("never saw the failure event")
		}
	}
}

func TestRun_PanicInStageMarksFailed(t *testing.T) {
	st := newFakeStore()
	svc := newService(st, newFakeCache(), analysis.NewRegistry(), &stubStages{
		researchFunc: func(_ context.Context, _ string) (*agent.ResearchResult, error) {
			panic("stage bug")
		},
	})

	a, err := svc.Trigger(context.Background(), "Acme Corp")
	require.NoError(t, err)

	status := waitForTerminal(t, st, a.ID)
	assert.Equal(t, models.AnalysisStatusFailed, status)
}

func TestRun_PersistenceFailureMarksFailed(t *testing.T) {
	st := newFakeStore()
	st.resultsErr = errors.New("db down")
	svc := newService(st, newFakeCache(), analysis.NewRegistry(), &stubStages{})

	a, err := svc.Trigger(context.Background(), "Acme Corp")
	require.NoError(t, err)

	status := waitForTerminal(t, st, a.ID)
	assert.Equal(t, models.AnalysisStatusFailed, status)
}

func TestRelease_RemovesOnlyTerminalChannels(t *testing.T) {
	st := newFakeStore()
	reg := analysis.NewRegistry()
	block := make(chan struct{})
	svc := newService(st, newFakeCache(), reg, &stubStages{
		researchFunc: func(_ context.Context, _ string) (*agent.ResearchResult, error) {
			<-block
			return nil, errors.New("aborted")
		},
	})

	a, err := svc.Trigger(context.Background(), "Acme Corp")
	require.NoError(t, err)

	// Still in flight: the channel must survive a release.
	svc.Release(context.Background(), a.ID)
	_, ok := reg.Lookup(a.ID)
	assert.True(t, ok)

	close(block)
	waitForTerminal(t, st, a.ID)

	svc.Release(context.Background(), a.ID)
	_, ok = reg.Lookup(a.ID)
	assert.False(t, ok)
}

func TestSubscribe_CreatesChannelForLateAttach(t *testing.T) {
	svc := newService(newFakeStore(), newFakeCache(), analysis.NewRegistry(), &stubStages{})

	ch := svc.Subscribe(42)
	assert.NotNil(t, ch)
}

func TestGetDetail_GroupsStrategiesByTitle(t *testing.T) {
	st := newFakeStore()
	svc := newService(st, newFakeCache(), analysis.NewRegistry(), &stubStages{})

	a, err := svc.Trigger(context.Background(), "Acme Corp")
	require.NoError(t, err)
	waitForTerminal(t, st, a.ID)

	detail, err := svc.GetDetail(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", detail.Analysis.CompanyName)
	require.Len(t, detail.Scenarios, 2)
	require.Len(t, detail.Strategies, 2)
	assert.NotEmpty(t, detail.Strategies["S1"])
	assert.NotEmpty(t, detail.Strategies["S2"])
}

func TestStatus_NotFound(t *testing.T) {
	svc := newService(newFakeStore(), newFakeCache(), analysis.NewRegistry(), &stubStages{})

	_, err := svc.Status(context.Background(), 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
