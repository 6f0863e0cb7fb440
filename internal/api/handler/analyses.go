package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/futurelens/futurelens/internal/analysis"
	"github.com/futurelens/futurelens/internal/api/response"
	"github.com/futurelens/futurelens/internal/store"
	"github.com/futurelens/futurelens/pkg/models"
)

const maxCompanyNameLength = 255

// Service is the slice of the analysis service the handlers depend on.
type Service interface {
	Trigger(ctx context.Context, companyName string) (*models.Analysis, error)
	Get(ctx context.Context, analysisID int64) (*models.Analysis, error)
	List(ctx context.Context) ([]*models.Analysis, error)
	GetDetail(ctx context.Context, analysisID int64) (*analysis.Detail, error)
	Status(ctx context.Context, analysisID int64) (string, error)
	CachedStatus(ctx context.Context, analysisID int64) (string, bool)
	Subscribe(analysisID int64) <-chan analysis.Event
	Release(ctx context.Context, analysisID int64)
}

// AnalysisHandler serves the analysis CRUD surface.
type AnalysisHandler struct {
	service Service
	logger  *slog.Logger
}

func NewAnalysisHandler(service Service, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{service: service, logger: logger}
}

type createAnalysisRequest struct {
	CompanyName string `json:"company_name"`
}

// Create accepts a company name and triggers an asynchronous analysis.
// The pending record is returned immediately.
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	req.CompanyName = strings.TrimSpace(req.CompanyName)
	if req.CompanyName == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "company_name is required", nil)
		return
	}
	if len(req.CompanyName) > maxCompanyNameLength {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "company_name exceeds 255 characters", nil)
		return
	}

	a, err := h.service.Trigger(r.Context(), req.CompanyName)
	if err != nil {
		h.logger.Error("triggering analysis", "company", req.CompanyName, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create analysis", nil)
		return
	}

	response.Accepted(w, a)
}

// List returns all analyses, newest first.
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("listing analyses", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list analyses", nil)
		return
	}
	response.JSON(w, analyses)
}

type detailResponse struct {
	*models.Analysis
	Scenarios  []*models.Scenario            `json:"scenarios"`
	Strategies map[string][]*models.Strategy `json:"strategies"`
}

// Get returns one analysis with its scenarios and strategies grouped by
// scenario title.
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.analysisID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetDetail(r.Context(), id)
	if err != nil {
		h.respondError(w, id, err, "loading analysis detail")
		return
	}

	response.JSON(w, detailResponse{
		Analysis:   &detail.Analysis,
		Scenarios:  detail.Scenarios,
		Strategies: detail.Strategies,
	})
}

// Status is the polling fallback: a point-in-time read of the record.
func (h *AnalysisHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := h.analysisID(w, r)
	if !ok {
		return
	}

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, id, err, "reading analysis status")
		return
	}
	response.JSON(w, a)
}

func (h *AnalysisHandler) analysisID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "analysisID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid analysis ID", nil)
		return 0, false
	}
	return id, true
}

func (h *AnalysisHandler) respondError(w http.ResponseWriter, id int64, err error, action string) {
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Analysis not found", nil)
		return
	}
	h.logger.Error(action, "analysis_id", id, "error", err)
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error", nil)
}
