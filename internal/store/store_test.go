// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/websearch/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *SQLStore {
	t.Helper()
	cfg := types.StoreConfig{
		Driver: types.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "index", "links.db"),
	}
	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(query, link string, rank int) types.ResultRecord {
	return types.ResultRecord{
		Query:   query,
		Rank:    rank,
		Link:    link,
		Title:   "Title for " + link,
		Snippet: "snippet",
		Content: "<html><body>page " + link + "</body></html>",
		Created: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// --- Lookup ---

func TestLookupMissReturnsEmpty(t *testing.T) {
	s := testStore(t)

	got, err := s.Lookup(context.Background(), "nothing here")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLookupOrdersByRank(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, r := range []types.ResultRecord{
		record("golang", "https://c.example", 7),
		record("golang", "https://a.example", 1),
		record("golang", "https://b.example", 4),
		record("rust", "https://a.example", 2),
	} {
		require.NoError(t, s.Insert(ctx, r))
	}

	got, err := s.Lookup(ctx, "golang")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 4, 7}, []int{got[0].Rank, got[1].Rank, got[2].Rank})
	assert.Equal(t, "https://a.example", got[0].Link)
	assert.Equal(t, "golang", got[0].Query)
	assert.Equal(t, "Title for https://a.example", got[0].Title)
	assert.Contains(t, got[0].Content, "page https://a.example")
	assert.True(t, got[0].Created.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Nil(t, got[0].Relevance)
}

// --- Insert ---

func TestInsertIsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := record("golang", "https://a.example", 1)
	second := first
	second.Rank = 9
	second.Title = "changed"

	require.NoError(t, s.Insert(ctx, first))
	require.NoError(t, s.Insert(ctx, second))

	n, err := s.Count(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Lookup(ctx, "golang")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Rank, "conflicting insert must not overwrite")
	assert.Equal(t, "Title for https://a.example", got[0].Title)
}

func TestInsertSameLinkDifferentQuery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, record("golang", "https://a.example", 1)))
	require.NoError(t, s.Insert(ctx, record("go lang", "https://a.example", 1)))

	for _, q := range []string{"golang", "go lang"} {
		n, err := s.Count(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 1, n, q)
	}
}

func TestInsertRejectsEmptyContent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := record("golang", "https://a.example", 1)
	r.Content = ""
	err := s.Insert(ctx, r)
	assert.ErrorIs(t, err, ErrEmptyContent)

	n, err := s.Count(ctx, "golang")
	require.NoError(t, err)
	assert.Zero(t, n)
}

// --- SetRelevance ---

func TestSetRelevanceLastWriteWins(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, record("golang", "https://a.example", 1)))
	require.NoError(t, s.SetRelevance(ctx, "golang", "https://a.example", 3))
	require.NoError(t, s.SetRelevance(ctx, "golang", "https://a.example", types.RelevantScore))

	got, err := s.Lookup(ctx, "golang")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Relevance)
	assert.Equal(t, types.RelevantScore, *got[0].Relevance)
}

func TestSetRelevanceUnknownPairSucceeds(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, record("golang", "https://a.example", 1)))
	require.NoError(t, s.SetRelevance(ctx, "golang", "https://missing.example", types.RelevantScore))

	n, err := s.Count(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Lookup(ctx, "golang")
	require.NoError(t, err)
	assert.Nil(t, got[0].Relevance)
}

// --- errors ---

func TestClosedStoreReturnsStoreError(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Close())

	_, err := s.Lookup(context.Background(), "golang")
	require.Error(t, err)

	var storeErr *Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "lookup", storeErr.Op)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), types.StoreConfig{Driver: "mysql"}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestReopenKeepsRows(t *testing.T) {
	ctx := context.Background()
	cfg := types.StoreConfig{Driver: types.DriverSQLite, DSN: filepath.Join(t.TempDir(), "links.db")}

	s, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, record("golang", "https://a.example", 1)))
	require.NoError(t, s.Close())

	s, err = Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// --- rebind ---

func TestRebind(t *testing.T) {
	tests := []struct {
		name   string
		driver types.StoreDriver
		in     string
		want   string
	}{
		{"sqlite unchanged", types.DriverSQLite, "a = ? AND b = ?", "a = ? AND b = ?"},
		{"postgres numbered", types.DriverPostgres, "a = ? AND b = ?", "a = $1 AND b = $2"},
		{"no placeholders", types.DriverPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SQLStore{driver: tt.driver}
			assert.Equal(t, tt.want, s.rebind(tt.in))
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "links.db?_journal_mode=WAL&_busy_timeout=5000", sqliteDSN("links.db"))
	assert.Equal(t, "links.db?cache=shared&_journal_mode=WAL&_busy_timeout=5000", sqliteDSN("links.db?cache=shared"))
}
