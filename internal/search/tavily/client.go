package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/futurelens/futurelens/internal/config"
	"github.com/futurelens/futurelens/pkg/models"
)

const searchURL = "https://api.tavily.com/search"

// Searcher implements models.WebSearcher using the Tavily search API.
type Searcher struct {
	baseURL    string
	apiKey     string
	depth      string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
}

func NewSearcher(cfg config.SearchConfig) *Searcher {
	return &Searcher{
		baseURL:    searchURL,
		apiKey:     cfg.Tavily.APIKey,
		depth:      cfg.Depth,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *Searcher) Name() string { return "tavily" }

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Results []models.SearchResult `json:"results"`
}

// Search runs the query with exponential-backoff retries. All failures are
// retried up to the configured budget; the last error is returned.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	payload, err := json.Marshal(searchRequest{
		APIKey:      s.apiKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: s.depth,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	attempts := s.maxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := s.retryDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay * time.Duration(1<<(attempt-1))):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		results, err := s.once(ctx, payload)
		if err == nil {
			return results, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("tavily search failed after %d attempts: %w", attempts, lastErr)
}

func (s *Searcher) once(ctx context.Context, payload []byte) ([]models.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s: %s", resp.Status, snippet)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return out.Results, nil
}

var _ models.WebSearcher = (*Searcher)(nil)
