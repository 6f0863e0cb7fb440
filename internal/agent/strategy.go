package agent

import (
	"context"
	"fmt"

	"github.com/futurelens/futurelens/pkg/models"
)

const (
	strategyCap        = 3
	strategySystemRole = "You are a strategic consultant. Propose concrete, actionable strategies based on scenarios."
)

type strategyRecord struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	ExpectedImpact string `json:"expected_impact"`
	KeyRisks       string `json:"key_risks"`
}

// GenerateStrategies asks the generator for 2-3 strategies tailored to one
// scenario. There is no fallback set for this stage: generation and parse
// failures propagate and fail the analysis.
func (a *Agent) GenerateStrategies(ctx context.Context, companyName, companyContext string, scenario models.Scenario) ([]models.Strategy, error) {
	timeline := "N/A"
	if scenario.Timeline != nil {
		timeline = *scenario.Timeline
	}
	assumptions := "N/A"
	if scenario.KeyAssumptions != nil {
		assumptions = *scenario.KeyAssumptions
	}

	prompt := fmt.Sprintf(`Based on the company context and future scenario below, propose 2-3 concrete strategic recommendations for %s.

Company Context:
%s

Future Scenario:
Title: %s
Description: %s
Timeline: %s
Key Assumptions: %s

For each strategy, provide:
- name: A clear, actionable strategy name (max 100 chars)
- description: Detailed description of the strategy (2-3 paragraphs)
- expected_impact: What impact this strategy would have (1-2 paragraphs)
- key_risks: Key risks and challenges (1 paragraph)

Return ONLY a JSON object of the form:
{"strategies": [
  {"name": "Strategy Name", "description": "Detailed description...", "expected_impact": "Impact description...", "key_risks": "Risk description..."},
  ...
]}

Provide 2-3 distinct, actionable strategies that would help the company navigate this scenario.`,
		companyName, companyContext, scenario.Title, scenario.Description, timeline, assumptions)

	response, err := a.Generator.Generate(ctx, models.GenerateRequest{
		Prompt:    prompt,
		System:    strategySystemRole,
		MaxTokens: 2000,
		JSONMode:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("generating strategies for scenario %d: %w", scenario.ScenarioNumber, err)
	}

	records, err := decodeRecords[strategyRecord](response, "strategies")
	if err != nil {
		return nil, fmt.Errorf("parsing strategies for scenario %d: %w", scenario.ScenarioNumber, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty strategy list for scenario %d", ErrMalformedPayload, scenario.ScenarioNumber)
	}

	if len(records) < 2 {
		a.Logger.Warn("fewer strategies than expected", "got", len(records), "scenario", scenario.ScenarioNumber)
	}
	if len(records) > strategyCap {
		records = records[:strategyCap]
	}

	strategies := make([]models.Strategy, 0, len(records))
	for _, rec := range records {
		st := models.Strategy{
			Name:        rec.Name,
			Description: rec.Description,
		}
		if rec.ExpectedImpact != "" {
			st.ExpectedImpact = &rec.ExpectedImpact
		}
		if rec.KeyRisks != "" {
			st.KeyRisks = &rec.KeyRisks
		}
		strategies = append(strategies, st)
	}
	return strategies, nil
}
