package search

import (
	"fmt"

	"github.com/futurelens/futurelens/internal/config"
	"github.com/futurelens/futurelens/internal/search/mock"
	"github.com/futurelens/futurelens/internal/search/tavily"
	"github.com/futurelens/futurelens/pkg/models"
)

// NewSearcher constructs the appropriate web-search backend based on config.
// Called once at server startup.
func NewSearcher(cfg config.SearchConfig) (models.WebSearcher, error) {
	switch cfg.Provider {
	case "tavily":
		return tavily.NewSearcher(cfg), nil
	case "mock":
		return mock.NewMockSearcher(), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q: must be one of tavily, mock", cfg.Provider)
	}
}
