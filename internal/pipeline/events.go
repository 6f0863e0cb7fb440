package pipeline

// Progress event types emitted over the lifetime of one analysis run.
// Stream consumers key off these names, so they are part of the API surface.
const (
	EventAnalysisStart      = "analysis_start"
	EventResearchStart      = "research_start"
	EventResearchComplete   = "research_complete"
	EventResearchError      = "research_error"
	EventScenariosStart     = "scenarios_start"
	EventScenariosComplete  = "scenarios_complete"
	EventScenariosError     = "scenarios_error"
	EventStrategiesStart    = "strategies_start"
	EventStrategyProgress   = "strategy_progress"
	EventStrategiesComplete = "strategies_complete"
	EventStrategiesError    = "strategies_error"
	EventAnalysisComplete   = "analysis_complete"
	EventAnalysisFailed     = "analysis_failed"
)
