package models

import "context"

// WebSearcher is the interface for web-search backends.
type WebSearcher interface {
	// Search returns up to maxResults ranked result snippets for the query.
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
	// Name returns the backend identifier (e.g., "tavily").
	Name() string
}

// SearchResult is a single ranked web-search hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}
