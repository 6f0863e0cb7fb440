package agent

import (
	"context"
	"fmt"

	"github.com/futurelens/futurelens/pkg/models"
)

const (
	scenarioTarget     = 4
	defaultLikelihood  = 0.25
	scenarioSystemRole = "You are a strategic futurist. Generate diverse, plausible future scenarios based on research."
)

type scenarioRecord struct {
	ScenarioNumber int      `json:"scenario_number"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Timeline       string   `json:"timeline"`
	KeyAssumptions string   `json:"key_assumptions"`
	Likelihood     *float64 `json:"likelihood"`
}

// GenerateScenarios asks the generator for four diverse future scenarios.
// Any generation or parse failure falls back to the hand-authored default
// set; only context cancellation aborts.
func (a *Agent) GenerateScenarios(ctx context.Context, companyName, companyContext string) ([]models.Scenario, error) {
	records, err := a.generateScenarioRecords(ctx, companyName, companyContext)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.Logger.Warn("scenario generation failed, using defaults", "company", companyName, "error", err)
		return DefaultScenarios(companyName), nil
	}

	if len(records) < scenarioTarget {
		a.Logger.Warn("fewer scenarios than expected", "got", len(records), "want", scenarioTarget)
	}
	if len(records) > scenarioTarget {
		records = records[:scenarioTarget]
	}

	// Ordinals key the strategy sets downstream, so they must be unique.
	// A zero or repeated scenario_number renumbers the whole batch by
	// position.
	seen := make(map[int]bool, len(records))
	renumber := false
	for _, rec := range records {
		if rec.ScenarioNumber <= 0 || seen[rec.ScenarioNumber] {
			renumber = true
			break
		}
		seen[rec.ScenarioNumber] = true
	}
	if renumber {
		a.Logger.Warn("scenario numbers missing or duplicated, renumbering by position", "company", companyName)
	}

	scenarios := make([]models.Scenario, 0, len(records))
	for i, rec := range records {
		sc := models.Scenario{
			ScenarioNumber: rec.ScenarioNumber,
			Title:          rec.Title,
			Description:    rec.Description,
		}
		if renumber {
			sc.ScenarioNumber = i + 1
		}
		if rec.Timeline != "" {
			sc.Timeline = &rec.Timeline
		}
		if rec.KeyAssumptions != "" {
			sc.KeyAssumptions = &rec.KeyAssumptions
		}
		likelihood := defaultLikelihood
		if rec.Likelihood != nil && *rec.Likelihood >= 0 && *rec.Likelihood <= 1 {
			likelihood = *rec.Likelihood
		}
		sc.Likelihood = &likelihood
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func (a *Agent) generateScenarioRecords(ctx context.Context, companyName, companyContext string) ([]scenarioRecord, error) {
	prompt := fmt.Sprintf(`Based on the following company context for %s, generate 4 diverse future scenarios.

Company Context:
%s

Generate 4 scenarios that explore different combinations of:
1. Technology evolution: incremental vs breakthrough
2. Market dynamics: concentration vs fragmentation
3. Regulatory environment: permissive vs restrictive
4. Economic conditions: growth vs constraint

Each scenario should be distinct and cover different strategic possibilities. For each scenario, provide:
- title: A descriptive title (max 100 chars)
- description: 2-3 paragraphs describing the scenario
- timeline: When this scenario might unfold (e.g., "2025-2030", "Next 3-5 years")
- key_assumptions: Key assumptions underlying this scenario
- likelihood: A probability estimate between 0.0 and 1.0

Return ONLY a JSON object of the form:
{"scenarios": [
  {"title": "Scenario Title", "description": "2-3 paragraphs...", "timeline": "2025-2030", "key_assumptions": "Key assumptions...", "likelihood": 0.25},
  ...
]}

Ensure scenarios are diverse and cover different strategic futures.`, companyName, companyContext)

	response, err := a.Generator.Generate(ctx, models.GenerateRequest{
		Prompt:      prompt,
		System:      scenarioSystemRole,
		Temperature: 0.8,
		MaxTokens:   3000,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords[scenarioRecord](response, "scenarios")
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty scenario list", ErrMalformedPayload)
	}
	return records, nil
}

// DefaultScenarios is the hand-authored fallback scenario set.
func DefaultScenarios(companyName string) []models.Scenario {
	mk := func(n int, title, description, timeline, assumptions string, likelihood float64) models.Scenario {
		return models.Scenario{
			ScenarioNumber: n,
			Title:          title,
			Description:    description,
			Timeline:       &timeline,
			KeyAssumptions: &assumptions,
			Likelihood:     &likelihood,
		}
	}
	return []models.Scenario{
		mk(1,
			fmt.Sprintf("Incremental Growth Scenario for %s", companyName),
			"A scenario where the company experiences steady, incremental growth with gradual technological adoption and stable market conditions.",
			"2025-2030",
			"Stable market conditions, gradual technology adoption, moderate regulatory changes",
			0.3),
		mk(2,
			fmt.Sprintf("Disruptive Technology Scenario for %s", companyName),
			"A scenario where breakthrough technologies fundamentally reshape the industry, creating both opportunities and challenges.",
			"2024-2027",
			"Rapid technology adoption, market disruption, new competitive entrants",
			0.25),
		mk(3,
			fmt.Sprintf("Regulatory Constraint Scenario for %s", companyName),
			"A scenario where increased regulatory oversight and restrictions impact business operations and strategic options.",
			"2025-2028",
			"Increased regulation, compliance requirements, restricted market access",
			0.2),
		mk(4,
			fmt.Sprintf("Market Consolidation Scenario for %s", companyName),
			"A scenario where market dynamics lead to consolidation, with winners and losers clearly defined.",
			"2026-2030",
			"Market consolidation, competitive pressure, strategic acquisitions",
			0.25),
	}
}
