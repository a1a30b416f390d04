// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the Custom Search JSON API and returns ranked
// candidate links. Pages are requested sequentially and concatenated; ranks
// run 1..N across the whole concatenation. A failing page aborts the fetch:
// callers never see a partial result set.
package search

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/websearch/pkg/types"
)

const (
	// pageSize is the number of items the API returns per page.
	pageSize = 10

	defaultResultCount = 20
	defaultTimeout     = 10 * time.Second
)

// Client issues paginated queries against one search API.
type Client struct {
	HTTP      *http.Client
	APIKey    string
	EngineID  string
	UserAgent string

	// MaxRetries bounds retries on HTTP 429. Zero uses the httputil default.
	MaxRetries int

	Logger *slog.Logger
}

// NewClient builds a Client from configuration.
func NewClient(cfg types.SearchConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		HTTP:       &http.Client{Timeout: timeout},
		APIKey:     cfg.APIKey,
		EngineID:   cfg.EngineID,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	}
}

// Pages returns the number of API pages needed for desired results.
func Pages(desired int) int {
	if desired <= 0 {
		return 0
	}
	return (desired + pageSize - 1) / pageSize
}

// Fetch returns up to desired candidates for query, ranked 1..N in API
// order across all pages. A desired count of zero or less uses the default
// of 20.
func (c *Client) Fetch(ctx context.Context, query string, desired int) ([]types.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if c.APIKey == "" || c.EngineID == "" {
		return nil, ErrMissingCredentials
	}
	if desired <= 0 {
		desired = defaultResultCount
	}

	var items []apiItem
	pages := Pages(desired)
	for i := 0; i < pages; i++ {
		start := i*pageSize + 1
		page, more, err := c.fetchPage(ctx, query, start)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)
		if !more {
			break
		}
	}

	if len(items) > desired {
		items = items[:desired]
	}

	candidates := make([]types.Candidate, len(items))
	for i, it := range items {
		candidates[i] = types.Candidate{
			Rank:    i + 1,
			Link:    it.Link,
			Title:   it.Title,
			Snippet: it.Snippet,
		}
	}

	c.logger().Info("search api fetch complete",
		slog.String("query", query),
		slog.Int("pages", pages),
		slog.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
