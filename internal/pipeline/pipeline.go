// Package pipeline orchestrates the fixed research → scenarios → strategies
// topology of one analysis run and narrates its progress to a callback.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/futurelens/futurelens/internal/agent"
	"github.com/futurelens/futurelens/pkg/models"
)

// StageRunner is the contract the stage implementations fulfil.
type StageRunner interface {
	Research(ctx context.Context, companyName string) (*agent.ResearchResult, error)
	GenerateScenarios(ctx context.Context, companyName, companyContext string) ([]models.Scenario, error)
	GenerateStrategies(ctx context.Context, companyName, companyContext string, scenario models.Scenario) ([]models.Strategy, error)
}

// ProgressFunc receives narration events as the pipeline advances. It may be
// nil. A panicking callback never takes the pipeline down with it.
type ProgressFunc func(eventType, message string)

// Result is the complete output of a successful run. Strategies are keyed by
// scenario ordinal so scenarios with identical titles cannot clobber each
// other's strategy sets.
type Result struct {
	Questions      []string
	Findings       []agent.QueryFindings
	CompanyContext string
	Scenarios      []models.Scenario
	Strategies     map[int][]models.Strategy
}

// Pipeline runs the three stages in order. A stage error aborts the run and
// propagates unchanged; narration of the failure is emitted on the way out.
type Pipeline struct {
	stages   StageRunner
	progress ProgressFunc
	logger   *slog.Logger
}

func New(stages StageRunner, progress ProgressFunc, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{stages: stages, progress: progress, logger: logger}
}

// Run executes the full pipeline for the company. On success every scenario
// has a strategy set in Result.Strategies; on failure partial strategy
// output is discarded.
func (p *Pipeline) Run(ctx context.Context, companyName string) (*Result, error) {
	p.emit(EventAnalysisStart, fmt.Sprintf("Starting analysis for %s", companyName))

	p.emit(EventResearchStart, "Starting research phase...")
	research, err := p.stages.Research(ctx, companyName)
	if err != nil {
		p.emit(EventResearchError, fmt.Sprintf("Research error: %v", err))
		return nil, fmt.Errorf("research stage: %w", err)
	}
	p.emit(EventResearchComplete, "Research phase completed")

	p.emit(EventScenariosStart, "Generating future scenarios...")
	scenarios, err := p.stages.GenerateScenarios(ctx, companyName, research.CompanyContext)
	if err != nil {
		p.emit(EventScenariosError, fmt.Sprintf("Scenarios error: %v", err))
		return nil, fmt.Errorf("scenario stage: %w", err)
	}
	p.emit(EventScenariosComplete, fmt.Sprintf("Generated %d scenarios", len(scenarios)))

	p.emit(EventStrategiesStart, "Generating strategic recommendations...")
	strategies := make(map[int][]models.Strategy, len(scenarios))
	for i, scenario := range scenarios {
		p.emit(EventStrategyProgress, fmt.Sprintf("Generating strategies for scenario %d/%d...", i+1, len(scenarios)))
		set, err := p.stages.GenerateStrategies(ctx, companyName, research.CompanyContext, scenario)
		if err != nil {
			p.emit(EventStrategiesError, fmt.Sprintf("Strategies error: %v", err))
			return nil, fmt.Errorf("strategy stage: %w", err)
		}
		strategies[scenario.ScenarioNumber] = set
	}
	p.emit(EventStrategiesComplete, "All strategic recommendations completed")

	p.emit(EventAnalysisComplete, "Analysis completed successfully")

	return &Result{
		Questions:      research.Questions,
		Findings:       research.Findings,
		CompanyContext: research.CompanyContext,
		Scenarios:      scenarios,
		Strategies:     strategies,
	}, nil
}

func (p *Pipeline) emit(eventType, message string) {
	if p.progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("progress callback panicked", "event", eventType, "panic", r)
		}
	}()
	p.progress(eventType, message)
}
