package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonesrussell/studysearch/internal/domain"
	"github.com/jonesrussell/studysearch/internal/httpx"
	"github.com/jonesrussell/studysearch/internal/logger"
)

// TavilyClient is a Searcher backed by the Tavily search API.
type TavilyClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  logger.Logger
}

// TavilyConfig configures a TavilyClient.
type TavilyConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewTavilyClient creates a Tavily search client.
func NewTavilyClient(cfg TavilyConfig, log logger.Logger) *TavilyClient {
	return &TavilyClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpx.NewClient(&httpx.ClientConfig{Timeout: cfg.Timeout}),
		logger:  log,
	}
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilyResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
	ResponseTime float64 `json:"response_time"`
}

// Search executes one sub-query and returns the raw results.
func (c *TavilyClient) Search(ctx context.Context, q Query) ([]domain.SearchResult, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:         c.apiKey,
		Query:          q.Query,
		SearchDepth:    q.Depth,
		MaxResults:     q.MaxResults,
		IncludeDomains: q.IncludeDomains,
	})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if apiErr := c.classifyStatus(resp); apiErr != nil {
		return nil, apiErr
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(tr.Results))
	for _, r := range tr.Results {
		result := domain.SearchResult{
			Title:          r.Title,
			URL:            r.URL,
			Content:        r.Content,
			RelevanceScore: r.Score,
		}
		if r.PublishedDate != "" {
			if ts, parseErr := parsePublishedDate(r.PublishedDate); parseErr == nil {
				result.Timestamp = &ts
			}
		}
		results = append(results, result)
	}

	c.logger.Debug("Search sub-query completed",
		logger.String("query", q.Query),
		logger.Int("results", len(results)),
		logger.Duration("duration", time.Since(start)),
	)

	return results, nil
}

// classifyStatus maps provider error statuses onto the package error kinds.
func (c *TavilyClient) classifyStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	httpErr := httpx.ParseHTTPError(resp)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrUnauthorized, httpErr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimit, httpErr)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", ErrInvalidRequest, httpErr)
	default:
		return fmt.Errorf("%w: %w", ErrSearchFailed, httpErr)
	}
}

// parsePublishedDate accepts the date formats Tavily has been observed to
// return.
func parsePublishedDate(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"Mon, 02 Jan 2006 15:04:05 MST",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
