// Package websearch retrieves open-web results from a SearXNG-compatible
// metasearch endpoint and optionally enriches the top hits with fetched
// page text.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/sweetpotato0/citekit/fetch"
	"github.com/sweetpotato0/citekit/pkg/logging"
	"github.com/sweetpotato0/citekit/source"
)

// Name is the source identifier this adapter registers under.
const Name = "web-search"

// snippetClip caps an enriched snippet; full page text would drown the
// evidence payload.
const snippetClip = 2000

// Config controls the search endpoint and enrichment behaviour.
type Config struct {
	BaseURL    string
	Language   string
	Category   string
	MaxResults int
	EnrichTop  int // fetch page text for this many top hits; 0 disables
}

// DefaultConfig reads the standard environment variables.
func DefaultConfig() Config {
	cfg := Config{
		BaseURL:    "http://localhost:8080",
		Language:   "en",
		Category:   "general",
		MaxResults: 10,
	}
	if v := os.Getenv("WEB_SEARCH_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("WEB_SEARCH_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("WEB_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxResults = n
		}
	}
	return cfg
}

// Adapter queries the metasearch endpoint.
type Adapter struct {
	cfg     Config
	client  *http.Client
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// New creates the adapter. A nil client uses http.DefaultClient.
func New(cfg Config, client *http.Client) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	return &Adapter{
		cfg:     cfg,
		client:  client,
		fetcher: fetch.New(client, 0),
		logger:  logging.WithComponent("websearch"),
	}
}

// Name returns the source identifier.
func (a *Adapter) Name() string { return Name }

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float32 `json:"score"`
	} `json:"results"`
	Suggestions []string `json:"suggestions"`
}

// Retrieve runs one search call and maps results into hits.
func (a *Adapter) Retrieve(ctx context.Context, req source.Request) ([]source.Hit, error) {
	endpoint, err := url.Parse(strings.TrimRight(a.cfg.BaseURL, "/") + "/search")
	if err != nil {
		return nil, fmt.Errorf("parse search URL: %w", err)
	}
	query := endpoint.Query()
	query.Set("q", req.Subquery)
	query.Set("format", "json")
	if a.cfg.Language != "" {
		query.Set("language", a.cfg.Language)
	}
	if a.cfg.Category != "" {
		query.Set("categories", a.cfg.Category)
	}
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search: HTTP %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	limit := a.cfg.MaxResults
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}

	hits := make([]source.Hit, 0, limit)
	for _, result := range parsed.Results {
		if len(hits) >= limit {
			break
		}
		if strings.TrimSpace(result.URL) == "" {
			continue
		}
		hits = append(hits, source.Hit{
			Source:  Name,
			Type:    source.TypeWeb,
			Title:   result.Title,
			Snippet: result.Content,
			URL:     result.URL,
			Score:   result.Score,
		})
	}

	if a.cfg.EnrichTop > 0 {
		a.enrich(ctx, hits)
	}
	return hits, nil
}

// enrich replaces search snippets with fetched page text for the top hits.
// Fetch failures leave the original snippet in place.
func (a *Adapter) enrich(ctx context.Context, hits []source.Hit) {
	top := a.cfg.EnrichTop
	if top > len(hits) {
		top = len(hits)
	}
	for i := 0; i < top; i++ {
		text, err := a.fetcher.PageText(ctx, hits[i].URL)
		if err != nil {
			a.logger.Debug("enrichment skipped", "url", hits[i].URL, "error", err)
			continue
		}
		if len(text) > snippetClip {
			text = text[:snippetClip]
		}
		if strings.TrimSpace(text) != "" {
			hits[i].Snippet = text
			hits[i].ContentType = "page"
		}
	}
}
