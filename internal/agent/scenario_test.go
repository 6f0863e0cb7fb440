package agent_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/futurelens/futurelens/internal/agent"
	llmmock "github.com/futurelens/futurelens/internal/llm/mock"
	searchmock "github.com/futurelens/futurelens/internal/search/mock"
	"github.com/futurelens/futurelens/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioJSON(n int) string {
	out := `{"scenarios":[`
	for i := 1; i <= n; i++ {
		if i > 1 {
			out += ","
		}
		out += fmt.Sprintf(`{"title":"S%d","description":"d%d","timeline":"2025-2030","key_assumptions":"a%d","likelihood":0.2}`, i, i, i)
	}
	return out + `]}`
}

func staticGenerator(response string) *llmmock.MockGenerator {
	return &llmmock.MockGenerator{
		GenerateFunc: func(_ context.Context, _ models.GenerateRequest) (string, error) {
			return response, nil
		},
	}
}

func TestGenerateScenarios_HappyPath(t *testing.T) {
	a := newAgent(staticGenerator(scenarioJSON(4)), searchmock.NewMockSearcher())

	scenarios, err := a.GenerateScenarios(context.Background(), "Acme Corp", "ctx")
	require.NoError(t, err)
	require.Len(t, scenarios, 4)
	assert.Equal(t, 1, scenarios[0].ScenarioNumber)
	assert.Equal(t, "S1", scenarios[0].Title)
	require.NotNil(t, scenarios[0].Timeline)
	assert.Equal(t, "2025-2030", *scenarios[0].Timeline)
	require.NotNil(t, scenarios[0].Likelihood)
	assert.InDelta(t, 0.2, *scenarios[0].Likelihood, 1e-9)
}

func TestGenerateScenarios_TruncatesToFour(t *testing.T) {
	a := newAgent(staticGenerator(scenarioJSON(6)), searchmock.NewMockSearcher())

	scenarios, err := a.GenerateScenarios(context.Background(), "Acme Corp", "ctx")
	require.NoError(t, err)
	require.Len(t, scenarios, 4)
	assert.Equal(t, "S4", scenarios[3].Title)
}

func TestGenerateScenarios_FewerThanFourAccepted(t *testing.T) {
	a := newAgent(staticGenerator(scenarioJSON(2)), searchmock.NewMockSearcher())

	scenarios, err := a.GenerateScenarios(context.Background(), "Acme Corp", "ctx")
	require.NoError(t, err)
	assert.Len(t, scenarios, 2)
}

func TestGenerateScenarios_BackfillsNumberAndLikelihood(t *testing.T) {
	response := `{"scenarios":[
		{"title":"No extras","description":"d"},
		{"title":"Out of range","description":"d","likelihood":1.7}
	]}`
	a := newAgent(staticGenerator(response), searchmock.NewMockSearcher())

	scenarios, err := a.GenerateScenarios(context.Background(), "Acme Corp", "ctx")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	assert.Equal(t, 1, scenarios[0].ScenarioNumber)
	assert.Equal(t, 2, scenarios[1].ScenarioNumber)
	require.NotNil(t, scenarios[0].Likelihood)
	assert.InDelta(t, 0.25, *scenarios[0].Likelihood, 1e-9)
	require.NotNil(t, scenarios[1].Likelihood)
	assert.InDelta(t, 0.25, *scenarios[1].Likelihood, 1e-9)
	assert.Nil(t, scenarios[0].Timeline)
}

func TestGenerateScenarios_DuplicateNumbersRenumberedByPosition(t *testing.T) {
	response := `{"scenarios":[
		{"scenario_number":2,"title":"First","description":"d"},
		{"scenario_number":2,"title":"Second","description":"d"},
		{"scenario_number":3,"title":"Third","description":"d"}
	]}`
	a := newAgent(staticGenerator(response), searchmock.NewMockSearcher())

	scenarios, err := a.GenerateScenarios(context.Background(), "Acme Corp", "ctx")
	require.NoError(t, err)
	require.Len(t, scenarios, 3)
	for i, sc := range scenarios {
		assert.Equal(t, i+1, sc.ScenarioNumber)
	}
	assert.Equal(t, "First", scenarios[0].Title)
	assert.Equal(t, "Second", scenarios[1].Title)
}

func TestGenerateScenarios_UniqueExplicitNumbersPreserved(t *testing.T) {
	response := `{"scenarios":[
		{"scenario_number":4,"title":"A","description":"d"},
		{"scenario_number":1,"title":"B","description":"d"}
	]}`
	a := newAgent(staticGenerator(response), searchmock.NewMockSearcher())

	scenarios, err := a.GenerateScenarios(context.Background(), "Acme Corp", "ctx")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, 4, scenarios[0].ScenarioNumber)
	assert.Equal(t, 1, scenarios[1].ScenarioNumber)
}

func TestGenerateScenarios_GenerationFailureFallsBack(t *testing.T) {
	gen := llmmock.NewFailingGenerator(errors.New("backend down"))
	a := newAgent(gen, searchmock.NewMockSearcher())

	scenarios, err := a.GenerateScenarios(context.Background(), "Acme Corp", "ctx")
	require.NoError(t, err)
	assert.Equal(t, agent.DefaultScenarios("Acme Corp"), scenarios)
}

func TestGenerateScenarios_ParseFailureFallsBack(t *testing.T) {
	a := newAgent(staticGenerator("not json at all"), searchmock.NewMockSearcher())

	scenarios, err := a.GenerateScenarios(context.Background(), "Acme Corp", "ctx")
	require.NoError(t, err)
	assert.Equal(t, agent.DefaultScenarios("Acme Corp"), scenarios)
}

func TestGenerateScenarios_ContextCancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &llmmock.MockGenerator{
		GenerateFunc: func(ctx context.Context, _ models.GenerateRequest) (string, error) {
			return "", ctx.Err()
		},
	}
	a := newAgent(gen, searchmock.NewMockSearcher())

	_, err := a.GenerateScenarios(ctx, "Acme Corp", "ctx")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultScenarios_Shape(t *testing.T) {
	scenarios := agent.DefaultScenarios("Acme Corp")
	require.Len(t, scenarios, 4)
	for i, sc := range scenarios {
		assert.Equal(t, i+1, sc.ScenarioNumber)
		assert.Contains(t, sc.Title, "Acme Corp")
		require.NotNil(t, sc.Likelihood)
		assert.GreaterOrEqual(t, *sc.Likelihood, 0.0)
		assert.LessOrEqual(t, *sc.Likelihood, 1.0)
	}
	// Deterministic across calls.
	assert.Equal(t, scenarios, agent.DefaultScenarios("Acme Corp"))
}
