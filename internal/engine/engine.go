// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine is the cache-first search entry point. A query whose
// results are already stored is answered from storage without touching the
// search API; otherwise candidates are fetched, their pages retrieved, and
// every candidate with content is persisted before being returned.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pdiddy/websearch/internal/store"
	"github.com/pdiddy/websearch/pkg/types"
)

const defaultResultCount = 20

// ErrEmptyQuery is returned when the query has no searchable text.
var ErrEmptyQuery = errors.New("query is empty")

// Searcher fetches ranked candidates from the search API.
type Searcher interface {
	Fetch(ctx context.Context, query string, desired int) ([]types.Candidate, error)
}

// PageFetcher retrieves page bodies aligned with links; a failed link
// yields "".
type PageFetcher interface {
	FetchAll(ctx context.Context, links []string) []string
}

// Ranker re-scores and sorts a batch of records for one query.
type Ranker interface {
	Apply(records []types.ResultRecord) []types.ResultRecord
}

// Engine wires storage, the search API client, and the page fetcher.
type Engine struct {
	store       store.Store
	searcher    Searcher
	fetcher     PageFetcher
	ranker      Ranker
	resultCount int
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithResultCount sets the number of candidates requested on a cache miss.
func WithResultCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.resultCount = n
		}
	}
}

// WithRanker sets the filter used by SearchRanked.
func WithRanker(r Ranker) Option {
	return func(e *Engine) { e.ranker = r }
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New builds an Engine.
func New(s store.Store, searcher Searcher, fetcher PageFetcher, opts ...Option) *Engine {
	e := &Engine{
		store:       s,
		searcher:    searcher,
		fetcher:     fetcher,
		resultCount: defaultResultCount,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns the stored records for query in rank order, fetching and
// persisting them first on a cache miss. Search API and storage errors are
// returned as is; a failed fetch leaves nothing cached. A context cancelled
// while pages are fetched returns the context error and caches nothing.
func (e *Engine) Search(ctx context.Context, query string) ([]types.ResultRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	cached, err := e.store.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		e.logger.Info("cache hit", slog.String("query", query), slog.Int("results", len(cached)))
		return cached, nil
	}

	e.logger.Info("cache miss", slog.String("query", query))

	candidates, err := e.searcher.Fetch(ctx, query, e.resultCount)
	if err != nil {
		return nil, err
	}

	links := make([]string, len(candidates))
	for i, c := range candidates {
		links[i] = c.Link
	}
	bodies := e.fetcher.FetchAll(ctx, links)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	created := e.now().UTC()
	records := make([]types.ResultRecord, 0, len(candidates))
	for i, c := range candidates {
		if i >= len(bodies) || bodies[i] == "" {
			continue
		}
		records = append(records, types.ResultRecord{
			Query:   query,
			Rank:    c.Rank,
			Link:    c.Link,
			Title:   c.Title,
			Snippet: c.Snippet,
			Content: bodies[i],
			Created: created,
		})
	}

	for _, r := range records {
		if err := e.store.Insert(ctx, r); err != nil {
			return nil, fmt.Errorf("caching %s: %w", r.Link, err)
		}
	}

	e.logger.Info("search cached",
		slog.String("query", query),
		slog.Int("candidates", len(candidates)),
		slog.Int("stored", len(records)),
		slog.Int("dropped", len(candidates)-len(records)),
	)
	return records, nil
}

// SearchRanked runs Search and applies the configured ranker. Without a
// ranker the records are returned in stored rank order.
func (e *Engine) SearchRanked(ctx context.Context, query string) ([]types.ResultRecord, error) {
	records, err := e.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if e.ranker == nil {
		return records, nil
	}
	return e.ranker.Apply(records), nil
}

// MarkRelevant records user relevance feedback for (query, link). The
// score is stored but not used for ranking.
func (e *Engine) MarkRelevant(ctx context.Context, query, link string) error {
	if err := e.store.SetRelevance(ctx, query, link, types.RelevantScore); err != nil {
		return err
	}
	e.logger.Info("marked relevant", slog.String("query", query), slog.String("link", link))
	return nil
}
