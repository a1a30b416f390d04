// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/websearch/internal/engine"
	"github.com/pdiddy/websearch/internal/search"
	"github.com/pdiddy/websearch/internal/store"
	"github.com/pdiddy/websearch/pkg/types"
)

// --- test doubles ---

type stubService struct {
	searchFn   func(ctx context.Context, query string) ([]types.ResultRecord, error)
	relevantFn func(ctx context.Context, query, link string) error
}

func (s *stubService) SearchRanked(ctx context.Context, query string) ([]types.ResultRecord, error) {
	if s.searchFn == nil {
		return []types.ResultRecord{}, nil
	}
	return s.searchFn(ctx, query)
}

func (s *stubService) MarkRelevant(ctx context.Context, query, link string) error {
	if s.relevantFn == nil {
		return nil
	}
	return s.relevantFn(ctx, query, link)
}

type staticSearcher struct{ candidates []types.Candidate }

func (s staticSearcher) Fetch(context.Context, string, int) ([]types.Candidate, error) {
	return s.candidates, nil
}

type staticFetcher struct{}

func (staticFetcher) FetchAll(_ context.Context, links []string) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = "<html><body><p>page for " + l + "</p></body></html>"
	}
	return out
}

// newEngineUnderTest wires a real engine over a temporary SQLite store.
func newEngineUnderTest(t *testing.T) (*engine.Engine, *store.SQLStore) {
	t.Helper()
	s, err := store.Open(context.Background(), types.StoreConfig{
		Driver: types.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "links.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	searcher := staticSearcher{candidates: []types.Candidate{
		{Rank: 1, Link: "https://a.test/", Title: "Alpha", Snippet: "first <b>bold</b> & <script>alert(1)</script>"},
		{Rank: 2, Link: "https://b.test/", Title: "Beta", Snippet: "second"},
	}}
	return engine.New(s, searcher, staticFetcher{}), s
}

func performForm(h http.Handler, query string) *httptest.ResponseRecorder {
	form := url.Values{"query": {query}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func performJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func performGet(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) bool {
	t.Helper()
	var body relevantResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Success
}

// --- form ---

func TestIndexRendersForm(t *testing.T) {
	router := NewRouter(NewHandler(&stubService{}, nil))

	rec := performGet(router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="query"`)
	assert.NotContains(t, rec.Body.String(), `class="result"`)
}

func TestSearchFormRendersEscapedResults(t *testing.T) {
	eng, _ := newEngineUnderTest(t)
	router := NewRouter(NewHandler(eng, nil))

	rec := performForm(router, "golang")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `href="https://a.test/"`)
	assert.Contains(t, body, "1: https://a.test/")
	assert.Contains(t, body, "2: https://b.test/")
	assert.Contains(t, body, "Alpha")
	assert.Contains(t, body, "Beta")
	assert.Contains(t, body, "&lt;b&gt;bold&lt;/b&gt; &amp; &lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, body, "<script>alert(1)")
	assert.Less(t, strings.Index(body, "Alpha"), strings.Index(body, "Beta"))
}

func TestSearchFormEmptyQueryShowsFormOnly(t *testing.T) {
	eng, s := newEngineUnderTest(t)
	router := NewRouter(NewHandler(eng, nil))

	rec := performForm(router, "   ")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="query"`)
	assert.NotContains(t, rec.Body.String(), `class="result"`)

	n, err := s.Count(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSearchFormErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"api failure", &search.APIError{Query: "q", Start: 1, Status: 500, Err: errors.New("backend error")}, http.StatusBadGateway},
		{"missing credentials", search.ErrMissingCredentials, http.StatusBadGateway},
		{"storage failure", &store.Error{Op: "insert", Err: errors.New("disk full")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{searchFn: func(context.Context, string) ([]types.ResultRecord, error) {
				return nil, tt.err
			}}
			rec := performForm(NewRouter(NewHandler(svc, nil)), "q")

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `class="error"`)
			assert.NotContains(t, rec.Body.String(), `class="result"`)
		})
	}
}

// --- relevant ---

func TestRelevantMarksRow(t *testing.T) {
	eng, s := newEngineUnderTest(t)
	router := NewRouter(NewHandler(eng, nil))
	require.Equal(t, http.StatusOK, performForm(router, "golang").Code)

	rec := performJSON(router, "/relevant", `{"query":"golang","link":"https://b.test/"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeSuccess(t, rec))

	stored, err := s.Lookup(context.Background(), "golang")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.NotNil(t, stored[1].Relevance)
	assert.Equal(t, types.RelevantScore, *stored[1].Relevance)
}

func TestRelevantUnknownPairSucceeds(t *testing.T) {
	eng, s := newEngineUnderTest(t)
	router := NewRouter(NewHandler(eng, nil))
	require.Equal(t, http.StatusOK, performForm(router, "golang").Code)

	before, err := s.Count(context.Background(), "golang")
	require.NoError(t, err)

	rec := performJSON(router, "/relevant", `{"query":"golang","link":"https://unknown.test/"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeSuccess(t, rec))

	after, err := s.Count(context.Background(), "golang")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	stored, err := s.Lookup(context.Background(), "golang")
	require.NoError(t, err)
	for _, r := range stored {
		assert.Nil(t, r.Relevance)
	}
}

func TestRelevantBadRequest(t *testing.T) {
	router := NewRouter(NewHandler(&stubService{}, nil))

	for _, body := range []string{`{"query":`, `not json`, ``} {
		rec := performJSON(router, "/relevant", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.False(t, decodeSuccess(t, rec))
	}
}

func TestRelevantEmptyFieldsSucceed(t *testing.T) {
	eng, s := newEngineUnderTest(t)
	router := NewRouter(NewHandler(eng, nil))
	require.Equal(t, http.StatusOK, performForm(router, "golang").Code)

	for _, body := range []string{`{"query":"","link":"https://a.test/"}`, `{"query":"golang"}`, `{}`} {
		rec := performJSON(router, "/relevant", body)
		assert.Equal(t, http.StatusOK, rec.Code, body)
		assert.True(t, decodeSuccess(t, rec), body)
	}

	stored, err := s.Lookup(context.Background(), "golang")
	require.NoError(t, err)
	for _, r := range stored {
		assert.Nil(t, r.Relevance)
	}
}

func TestRelevantStorageError(t *testing.T) {
	svc := &stubService{relevantFn: func(context.Context, string, string) error {
		return &store.Error{Op: "set relevance", Err: errors.New("locked")}
	}}
	router := NewRouter(NewHandler(svc, nil))

	rec := performJSON(router, "/relevant", `{"query":"q","link":"https://a.test/"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decodeSuccess(t, rec))
}

// --- json api ---

func TestSearchJSONOmitsContent(t *testing.T) {
	eng, _ := newEngineUnderTest(t)
	router := NewRouter(NewHandler(eng, nil))

	rec := performGet(router, "/api/search?q=golang")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"content"`)

	var body struct {
		Query   string               `json:"query"`
		Results []types.ResultRecord `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "golang", body.Query)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "https://a.test/", body.Results[0].Link)
	assert.Empty(t, body.Results[0].Content)
}

func TestSearchJSONErrors(t *testing.T) {
	eng, _ := newEngineUnderTest(t)
	router := NewRouter(NewHandler(eng, nil))
	assert.Equal(t, http.StatusBadRequest, performGet(router, "/api/search").Code)

	svc := &stubService{searchFn: func(context.Context, string) ([]types.ResultRecord, error) {
		return nil, &search.APIError{Query: "q", Start: 11, Status: 403, Err: errors.New("quota")}
	}}
	rec := performGet(NewRouter(NewHandler(svc, nil)), "/api/search?q=q")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"search service unavailable"}`, rec.Body.String())
}

// --- credentials ---

type refusingTransport struct{}

func (refusingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestSearchAPIUnreachableHidesKey(t *testing.T) {
	const apiKey = "SECRET-KEY-123"

	s, err := store.Open(context.Background(), types.StoreConfig{
		Driver: types.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "links.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	client := &search.Client{
		HTTP:     &http.Client{Transport: refusingTransport{}},
		APIKey:   apiKey,
		EngineID: "cx1",
		Logger:   logger,
	}
	eng := engine.New(s, client, staticFetcher{}, engine.WithLogger(logger))
	router := NewRouter(NewHandler(eng, logger))

	form := performForm(router, "golang")
	assert.Equal(t, http.StatusBadGateway, form.Code)
	assert.Contains(t, form.Body.String(), "search service unavailable")
	assert.NotContains(t, form.Body.String(), apiKey)

	api := performGet(router, "/api/search?q=golang")
	assert.Equal(t, http.StatusBadGateway, api.Code)
	assert.NotContains(t, api.Body.String(), apiKey)

	assert.Contains(t, logs.String(), "search failed")
	assert.NotContains(t, logs.String(), apiKey)
}

func TestHealth(t *testing.T) {
	rec := performGet(NewRouter(NewHandler(&stubService{}, nil)), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNewServerUsesConfig(t *testing.T) {
	srv := NewServer(types.ServerConfig{Address: ":9999", ReadTimeout: 3, WriteTimeout: 4}, NewHandler(&stubService{}, nil))
	assert.Equal(t, ":9999", srv.Addr)
	assert.EqualValues(t, 3, srv.ReadTimeout)
	assert.EqualValues(t, 4, srv.WriteTimeout)
	assert.NotNil(t, srv.Handler)
}
