// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/websearch/internal/httputil"
)

// customSearchBase is the Custom Search JSON API endpoint. Declared as a
// var so tests can substitute an httptest server.
var customSearchBase = "https://www.googleapis.com/customsearch/v1"

const (
	searchKind   = "customsearch#search"
	maxPageBytes = 4 << 20
)

// fetchPage requests the page beginning at the 1-based offset start. It
// reports more=false when the API signals there are no further results.
func (c *Client) fetchPage(ctx context.Context, query string, start int) (items []apiItem, more bool, err error) {
	fail := func(status int, err error) ([]apiItem, bool, error) {
		return nil, false, &APIError{Query: query, Start: start, Status: status, Err: err}
	}

	params := url.Values{
		"key":   {c.APIKey},
		"cx":    {c.EngineID},
		"q":     {query},
		"start": {strconv.Itoa(start)},
		"num":   {strconv.Itoa(pageSize)},
	}
	reqURL := customSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fail(0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries, c.logger())
	if err != nil {
		return fail(0, fmt.Errorf("search api request: %w", redactKey(err)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return fail(resp.StatusCode, fmt.Errorf("search api returned HTTP %d%s", resp.StatusCode, errorMessage(body)))
	}

	items, more, err = decodePage(body)
	if err != nil {
		return fail(resp.StatusCode, err)
	}

	c.logger().Debug("search api page",
		"query", query,
		"start", start,
		"items", len(items),
	)
	return items, more, nil
}

// decodePage validates a page payload against the expected shape.
func decodePage(body []byte) ([]apiItem, bool, error) {
	var page apiResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}

	if page.Error != nil {
		return nil, false, fmt.Errorf("%w: api error %d: %s", ErrMalformedPage, page.Error.Code, page.Error.Message)
	}

	if page.Items == nil {
		// The API omits items once the result set is exhausted.
		if page.Kind == searchKind {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: missing items", ErrMalformedPage)
	}

	items := *page.Items
	for i, it := range items {
		if strings.TrimSpace(it.Link) == "" {
			return nil, false, fmt.Errorf("%w: item %d has no link", ErrMalformedPage, i)
		}
	}
	return items, true, nil
}

// errorMessage extracts the API's error message from a failed response, if any.
func errorMessage(body []byte) string {
	var page apiResponse
	if err := json.Unmarshal(body, &page); err != nil || page.Error == nil || page.Error.Message == "" {
		return ""
	}
	return ": " + page.Error.Message
}

// redactKey masks the API key in the request URL carried by a transport
// error, so the error can be logged or shown without exposing credentials.
func redactKey(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	u, perr := url.Parse(urlErr.URL)
	if perr != nil {
		urlErr.URL = "(redacted)"
		return err
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	urlErr.URL = u.String()
	return err
}

// IsAPIError reports whether err came from a failed search API page.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Custom Search JSON API structures.
type apiResponse struct {
	Kind  string     `json:"kind"`
	Items *[]apiItem `json:"items"`
	Error *apiError  `json:"error"`
}

type apiItem struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
