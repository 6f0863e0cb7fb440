// Package analysis owns the analysis job lifecycle: trigger, background
// execution, progress fan-out, persistence, and read paths.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/futurelens/futurelens/internal/cache"
	"github.com/futurelens/futurelens/internal/llm"
	"github.com/futurelens/futurelens/internal/pipeline"
	"github.com/futurelens/futurelens/internal/store"
	"github.com/futurelens/futurelens/pkg/models"
)

// statusTTL bounds how long a mirrored status lives in the cache.
const statusTTL = 30 * time.Minute

// Service orchestrates company-futures analyses.
type Service struct {
	store    store.Store
	cache    cache.Cache
	registry *Registry
	stages   pipeline.StageRunner
	logger   *slog.Logger

	// baseCtx is the lifetime of background runs. Cancelled only on server
	// shutdown, never by the triggering request.
	baseCtx context.Context
}

func NewService(baseCtx context.Context, st store.Store, ca cache.Cache, reg *Registry, stages pipeline.StageRunner, logger *slog.Logger) *Service {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		cache:    ca,
		registry: reg,
		stages:   stages,
		logger:   logger,
		baseCtx:  baseCtx,
	}
}

// Trigger creates a pending analysis and dispatches the pipeline in a
// background goroutine. Returns the analysis immediately.
func (s *Service) Trigger(ctx context.Context, companyName string) (*models.Analysis, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, fmt.Errorf("company name is required")
	}

	a := &models.Analysis{
		CompanyName: companyName,
		Status:      models.AnalysisStatusPending,
	}
	if err := s.store.CreateAnalysis(ctx, a); err != nil {
		return nil, fmt.Errorf("creating analysis: %w", err)
	}

	_ = s.cache.SetAnalysisStatus(ctx, a.ID, models.AnalysisStatusPending, statusTTL)
	s.registry.Ensure(a.ID)

	go s.run(a.ID, companyName)

	return a, nil
}

// run executes the pipeline in a goroutine. It recovers from panics and
// always leaves the analysis in a terminal status.
func (s *Service) run(analysisID int64, companyName string) {
	ctx := s.baseCtx

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in analysis run", "analysis_id", analysisID, "panic", r)
			s.markFailed(ctx, analysisID, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := s.store.UpdateAnalysisStatus(ctx, analysisID, models.AnalysisStatusProcessing); err != nil {
		s.logger.Error("marking analysis processing", "analysis_id", analysisID, "error", err)
		s.markFailed(ctx, analysisID, fmt.Sprintf("marking processing: %v", err))
		return
	}
	_ = s.cache.SetAnalysisStatus(ctx, analysisID, models.AnalysisStatusProcessing, statusTTL)

	// The callback resolves the channel per emission, so a stream that
	// attaches mid-run starts receiving from that point on.
	p := pipeline.New(s.stages, func(eventType, message string) {
		s.publish(analysisID, eventType, message)
	}, s.logger)

	result, err := p.Run(ctx, companyName)
	if err != nil {
		s.logger.Error("pipeline failed", "analysis_id", analysisID, "company", companyName, "error", err)
		s.markFailed(ctx, analysisID, failureReason(err))
		return
	}

	if err := s.store.SaveResults(ctx, analysisID, toStoreResults(result)); err != nil {
		s.logger.Error("persisting results", "analysis_id", analysisID, "error", err)
		s.markFailed(ctx, analysisID, fmt.Sprintf("persisting results: %v", err))
		return
	}

	if err := s.store.UpdateAnalysisStatus(ctx, analysisID, models.AnalysisStatusCompleted); err != nil {
		s.logger.Error("marking analysis completed", "analysis_id", analysisID, "error", err)
		s.markFailed(ctx, analysisID, fmt.Sprintf("marking completed: %v", err))
		return
	}
	_ = s.cache.SetAnalysisStatus(ctx, analysisID, models.AnalysisStatusCompleted, statusTTL)

	// Final completion event, emitted only after the results are durable.
	s.publish(analysisID, pipeline.EventAnalysisComplete, "Analysis completed and saved")
	s.logger.Info("analysis completed", "analysis_id", analysisID, "company", companyName,
		"scenarios", len(result.Scenarios))
}

// markFailed transitions the analysis to FAILED through a context that
// survives cancellation of the run context.
func (s *Service) markFailed(ctx context.Context, analysisID int64, reason string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.store.UpdateAnalysisStatus(ctx, analysisID, models.AnalysisStatusFailed); err != nil {
		s.logger.Error("marking analysis failed", "analysis_id", analysisID, "error", err)
	}
	_ = s.cache.SetAnalysisStatus(ctx, analysisID, models.AnalysisStatusFailed, statusTTL)
	s.publish(analysisID, pipeline.EventAnalysisFailed, fmt.Sprintf("Analysis failed: %s", reason))
}

func (s *Service) publish(analysisID int64, eventType, message string) {
	delivered := s.registry.Publish(analysisID, Event{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
	if !delivered {
		s.logger.Debug("progress event not delivered", "analysis_id", analysisID, "event", eventType)
	}
}

// failureReason maps well-known backend errors onto a stable message for the
// failure event. Anything else passes through verbatim.
func failureReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrGeneratorUnavailable):
		return "text generation backend unavailable"
	case errors.Is(err, llm.ErrBadRequest):
		return "text generation request rejected"
	default:
		return err.Error()
	}
}

func toStoreResults(result *pipeline.Result) store.Results {
	queries := make([]store.QueryRecord, 0, len(result.Findings))
	for _, f := range result.Findings {
		encoded, err := json.Marshal(f.Results)
		if err != nil || f.Results == nil {
			encoded = []byte("[]")
		}
		queries = append(queries, store.QueryRecord{Query: f.Question, Results: encoded})
	}
	return store.Results{
		CompanyContext: result.CompanyContext,
		Queries:        queries,
		Scenarios:      result.Scenarios,
		Strategies:     result.Strategies,
	}
}

// Subscribe attaches to the live event channel for the analysis, creating it
// if needed so clients can attach before or after the run starts.
func (s *Service) Subscribe(analysisID int64) <-chan Event {
	return s.registry.Ensure(analysisID)
}

// Release drops the event channel once the analysis reached a terminal
// status. A channel for an in-flight analysis is kept so a reconnecting
// client can resume receiving events.
func (s *Service) Release(ctx context.Context, analysisID int64) {
	status, err := s.Status(ctx, analysisID)
	if err != nil {
		s.logger.Warn("release status check failed, keeping channel", "analysis_id", analysisID, "error", err)
		return
	}
	if models.TerminalStatus(status) {
		s.registry.Remove(analysisID)
	}
}

// Status reads the authoritative status from the store.
func (s *Service) Status(ctx context.Context, analysisID int64) (string, error) {
	a, err := s.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return "", err
	}
	return a.Status, nil
}

// CachedStatus reads the mirrored status from the cache. Best-effort.
func (s *Service) CachedStatus(ctx context.Context, analysisID int64) (string, bool) {
	status, found, err := s.cache.GetAnalysisStatus(ctx, analysisID)
	if err != nil {
		return "", false
	}
	return status, found
}

// Get returns one analysis record.
func (s *Service) Get(ctx context.Context, analysisID int64) (*models.Analysis, error) {
	return s.store.GetAnalysis(ctx, analysisID)
}

// List returns all analyses, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Analysis, error) {
	return s.store.ListAnalyses(ctx)
}

// Detail is the full read model for one analysis: the record, its scenarios
// in ordinal order, and strategies grouped by scenario title.
type Detail struct {
	Analysis   models.Analysis
	Scenarios  []*models.Scenario
	Strategies map[string][]*models.Strategy
}

// GetDetail loads the analysis with its scenarios and strategies. Scenarios
// with duplicate titles collapse into one strategy group; ordinal keying in
// storage keeps the underlying rows intact.
func (s *Service) GetDetail(ctx context.Context, analysisID int64) (*Detail, error) {
	a, err := s.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	scenarios, err := s.store.ListScenarios(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}

	strategies := make(map[string][]*models.Strategy, len(scenarios))
	for _, sc := range scenarios {
		set, err := s.store.ListStrategies(ctx, sc.ID)
		if err != nil {
			return nil, fmt.Errorf("listing strategies for scenario %d: %w", sc.ID, err)
		}
		strategies[sc.Title] = set
	}

	return &Detail{Analysis: *a, Scenarios: scenarios, Strategies: strategies}, nil
}
