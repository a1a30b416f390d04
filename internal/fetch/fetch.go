// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves raw page markup for search result links. Every
// failure (network error, timeout, non-2xx status, robots disallow) degrades
// that link to empty content; a batch never fails as a whole.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/pdiddy/websearch/pkg/types"
)

const (
	defaultTimeout      = 5 * time.Second
	defaultMaxBodyBytes = 5 << 20
	defaultUserAgent    = "websearch/0.1"
)

// Fetcher retrieves pages through a bounded worker pool.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	maxBody   int64
	pool      *ants.Pool
	robots    *robotsCache
	logger    *slog.Logger
}

// New builds a Fetcher. Workers below 1 are raised to 1, which fetches
// links one at a time.
func New(cfg types.FetchConfig, logger *slog.Logger) (*Fetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating fetch pool: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	f := &Fetcher{
		client:    client,
		timeout:   timeout,
		userAgent: userAgent,
		maxBody:   maxBody,
		pool:      pool,
		logger:    logger,
	}
	if cfg.RespectRobots {
		f.robots = newRobotsCache(client, userAgent, logger)
	}
	return f, nil
}

// Release stops the worker pool.
func (f *Fetcher) Release() {
	f.pool.Release()
}

// Fetch returns the body of link, or "" if it could not be retrieved.
func (f *Fetcher) Fetch(ctx context.Context, link string) string {
	if f.robots != nil && !f.robots.allowed(ctx, link) {
		f.logger.Info("robots.txt disallowed", slog.String("link", link))
		return ""
	}

	body, err := f.get(ctx, link)
	if err != nil {
		f.logger.Warn("page fetch failed", slog.String("link", link), slog.Any("err", err))
		return ""
	}
	return body
}

// FetchAll fetches every link and returns bodies aligned with links.
func (f *Fetcher) FetchAll(ctx context.Context, links []string) []string {
	bodies := make([]string, len(links))

	var wg sync.WaitGroup
	for i, link := range links {
		wg.Add(1)
		err := f.pool.Submit(func() {
			defer wg.Done()
			bodies[i] = f.Fetch(ctx, link)
		})
		if err != nil {
			wg.Done()
			f.logger.Warn("page fetch not scheduled", slog.String("link", link), slog.Any("err", err))
		}
	}
	wg.Wait()

	fetched := 0
	for _, b := range bodies {
		if b != "" {
			fetched++
		}
	}
	f.logger.Info("page fetch complete",
		slog.Int("links", len(links)),
		slog.Int("fetched", fetched),
		slog.Int("failed", len(links)-fetched),
	)
	return bodies
}

// pageError describes why a single link produced no content.
type pageError struct {
	Status int
	Err    error
}

func (e *pageError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

func (e *pageError) Unwrap() error { return e.Err }

func (f *Fetcher) get(ctx context.Context, link string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", &pageError{Err: err}
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &pageError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &pageError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return "", &pageError{Status: resp.StatusCode, Err: err}
	}
	return string(body), nil
}
