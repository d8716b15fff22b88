package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/config"
	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure SerpAPIClient implements model.Searcher.
var _ model.Searcher = (*SerpAPIClient)(nil)

// noResultsMessage is what SerpAPI reports in its error field when the query
// simply matched nothing.
const noResultsMessage = "hasn't returned any results"

// serpAPIResponse is the subset of the SerpAPI search response we consume.
type serpAPIResponse struct {
	OrganicResults []model.SearchResult `json:"organic_results"`
	Error          string               `json:"error"`
}

// SerpAPIClient runs the configured job query against the SerpAPI search endpoint.
type SerpAPIClient struct {
	endpoint string
	apiKey   string
	params   url.Values
	query    string
	client   *http.Client
}

// NewSerpAPIClient builds a client whose query and parameters are fixed at construction.
func NewSerpAPIClient(cfg config.SearchConfig, client *http.Client) *SerpAPIClient {
	params := url.Values{}
	params.Set("engine", cfg.Engine)
	if cfg.Num > 0 {
		params.Set("num", strconv.Itoa(cfg.Num))
	}
	if cfg.Country != "" {
		params.Set("gl", cfg.Country)
	}
	if cfg.Language != "" {
		params.Set("hl", cfg.Language)
	}
	if cfg.Recency != "" {
		params.Set("tbs", cfg.Recency)
	}

	return &SerpAPIClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		params:   params,
		query:    BuildQuery(cfg.Sites, cfg.Roles, cfg.Locations),
		client:   client,
	}
}

// Query returns the boolean query string sent to the provider.
func (c *SerpAPIClient) Query() string {
	return c.query
}

// Search issues one GET to the provider and returns its organic results.
func (c *SerpAPIClient) Search(ctx context.Context) ([]model.SearchResult, error) {
	params := url.Values{}
	for k, v := range c.params {
		params[k] = v
	}
	params.Set("q", c.query)
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("serpapi search: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("serpapi search: %s", strings.TrimSpace(string(body))),
		}
	}

	var sr serpAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("serpapi search: decode response: %w", err)
	}

	if sr.Error != "" {
		if strings.Contains(sr.Error, noResultsMessage) {
			return []model.SearchResult{}, nil
		}
		return nil, fmt.Errorf("serpapi search: %s", sr.Error)
	}

	return sr.OrganicResults, nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
