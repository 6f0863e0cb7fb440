package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/futurelens/futurelens/internal/api/handler"
	mw "github.com/futurelens/futurelens/internal/api/middleware"
	"github.com/futurelens/futurelens/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc
	Analyses      *handler.AnalysisHandler
	Stream        *handler.StreamHandler
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Route("/api/v1/analyses", func(r chi.Router) {
			r.Post("/", deps.Analyses.Create)
			r.Get("/", deps.Analyses.List)
			r.Get("/{analysisID}", deps.Analyses.Get)
			r.Get("/{analysisID}/status", deps.Analyses.Status)
			r.Get("/{analysisID}/stream", deps.Stream.Stream)
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
