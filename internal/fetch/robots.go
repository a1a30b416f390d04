// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/benjaminestes/robots"
)

// robotsCache memoises parsed robots.txt files per robots URL. A nil entry
// means the file could not be fetched and every path is allowed.
type robotsCache struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[string]*robots.Robots
}

func newRobotsCache(client *http.Client, userAgent string, logger *slog.Logger) *robotsCache {
	return &robotsCache{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
		entries:   make(map[string]*robots.Robots),
	}
}

func (c *robotsCache) allowed(ctx context.Context, link string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("panic in robots.txt parsing, assuming allowed", slog.String("link", link), slog.Any("panic", r))
			ok = true
		}
	}()

	robotsURL, err := robots.Locate(link)
	if err != nil {
		return true
	}

	c.mu.Lock()
	r, cached := c.entries[robotsURL]
	c.mu.Unlock()

	if !cached {
		r, err = c.get(ctx, robotsURL)
		if err != nil {
			c.logger.Debug("failed to fetch robots.txt", slog.String("url", robotsURL), slog.Any("err", err))
			r = nil
		}
		c.mu.Lock()
		c.entries[robotsURL] = r
		c.mu.Unlock()
	}

	if r == nil {
		return true
	}
	return r.Test(c.userAgent, link)
}

func (c *robotsCache) get(ctx context.Context, robotsURL string) (*robots.Robots, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil, err
	}
	return robots.From(resp.StatusCode, bytes.NewReader(body))
}
