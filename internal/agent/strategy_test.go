package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/futurelens/futurelens/internal/agent"
	llmmock "github.com/futurelens/futurelens/internal/llm/mock"
	searchmock "github.com/futurelens/futurelens/internal/search/mock"
	"github.com/futurelens/futurelens/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScenario() models.Scenario {
	timeline := "2025-2030"
	assumptions := "Stable demand"
	return models.Scenario{
		ScenarioNumber: 1,
		Title:          "Steady Growth",
		Description:    "Incremental gains.",
		Timeline:       &timeline,
		KeyAssumptions: &assumptions,
	}
}

func TestGenerateStrategies_HappyPath(t *testing.T) {
	var prompt string
	gen := &llmmock.MockGenerator{
		GenerateFunc: func(_ context.Context, req models.GenerateRequest) (string, error) {
			prompt = req.Prompt
			return `{"strategies":[
				{"name":"Defend core","description":"d1","expected_impact":"i1","key_risks":"r1"},
				{"name":"Expand","description":"d2"}
			]}`, nil
		},
	}
	a := newAgent(gen, searchmock.NewMockSearcher())

	strategies, err := a.GenerateStrategies(context.Background(), "Acme Corp", "ctx", testScenario())
	require.NoError(t, err)
	require.Len(t, strategies, 2)

	assert.Equal(t, "Defend core", strategies[0].Name)
	require.NotNil(t, strategies[0].ExpectedImpact)
	assert.Equal(t, "i1", *strategies[0].ExpectedImpact)
	assert.Nil(t, strategies[1].ExpectedImpact)

	assert.Contains(t, prompt, "Steady Growth")
	assert.Contains(t, prompt, "2025-2030")
	assert.Contains(t, prompt, "Stable demand")
}

func TestGenerateStrategies_TruncatesToThree(t *testing.T) {
	a := newAgent(staticGenerator(`[
		{"name":"s1","description":"d"},
		{"name":"s2","description":"d"},
		{"name":"s3","description":"d"},
		{"name":"s4","description":"d"}
	]`), searchmock.NewMockSearcher())

	strategies, err := a.GenerateStrategies(context.Background(), "Acme Corp", "ctx", testScenario())
	require.NoError(t, err)
	require.Len(t, strategies, 3)
	assert.Equal(t, "s3", strategies[2].Name)
}

func TestGenerateStrategies_NoFallbackOnGenerationFailure(t *testing.T) {
	backendErr := errors.New("backend down")
	a := newAgent(llmmock.NewFailingGenerator(backendErr), searchmock.NewMockSearcher())

	_, err := a.GenerateStrategies(context.Background(), "Acme Corp", "ctx", testScenario())
	assert.ErrorIs(t, err, backendErr)
}

func TestGenerateStrategies_NoFallbackOnParseFailure(t *testing.T) {
	a := newAgent(staticGenerator("sorry, no strategies today"), searchmock.NewMockSearcher())

	_, err := a.GenerateStrategies(context.Background(), "Acme Corp", "ctx", testScenario())
	assert.ErrorIs(t, err, agent.ErrMalformedPayload)
}

func TestGenerateStrategies_EmptyListIsError(t *testing.T) {
	a := newAgent(staticGenerator(`{"strategies":[]}`), searchmock.NewMockSearcher())

	_, err := a.GenerateStrategies(context.Background(), "Acme Corp", "ctx", testScenario())
	assert.ErrorIs(t, err, agent.ErrMalformedPayload)
}

func TestGenerateStrategies_MissingScenarioFieldsTolerated(t *testing.T) {
	sc := models.Scenario{ScenarioNumber: 2, Title: "Bare", Description: "d"}
	var prompt string
	gen := &llmmock.MockGenerator{
		GenerateFunc: func(_ context.Context, req models.GenerateRequest) (string, error) {
			prompt = req.Prompt
			return `{"strategies":[{"name":"s","description":"d"},{"name":"s2","description":"d"}]}`, nil
		},
	}
	a := newAgent(gen, searchmock.NewMockSearcher())

	_, err := a.GenerateStrategies(context.Background(), "Acme Corp", "ctx", sc)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Timeline: N/A")
	assert.Contains(t, prompt, "Key Assumptions: N/A")
}
