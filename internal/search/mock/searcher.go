package mock

import (
	"context"

	"github.com/futurelens/futurelens/pkg/models"
)

// MockSearcher satisfies models.WebSearcher for testing.
type MockSearcher struct {
	Name_      string
	SearchFunc func(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error)
}

func (m *MockSearcher) Name() string { return m.Name_ }

func (m *MockSearcher) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, maxResults)
	}
	return nil, nil
}

// NewMockSearcher returns a MockSearcher with a canned result set.
func NewMockSearcher() *MockSearcher {
	return &MockSearcher{
		Name_: "mock",
		SearchFunc: func(_ context.Context, query string, _ int) ([]models.SearchResult, error) {
			return []models.SearchResult{
				{Title: "Mock result for: " + query, URL: "https://example.com", Content: "Mock search content.", Score: 0.9},
			}, nil
		},
	}
}

// NewFailingSearcher returns a MockSearcher that always returns the given error.
func NewFailingSearcher(err error) *MockSearcher {
	return &MockSearcher{
		Name_: "mock-failing",
		SearchFunc: func(_ context.Context, _ string, _ int) ([]models.SearchResult, error) {
			return nil, err
		},
	}
}

var _ models.WebSearcher = (*MockSearcher)(nil)
