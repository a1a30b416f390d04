// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists search result records per query and answers
// cache lookups. Rows are unique per (query, link); a second insert of the
// same pair is a silent no-op.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/websearch/pkg/types"
)

const defaultSQLitePath = "data/links.db"

// Store is the result cache used by the search engine.
type Store interface {
	// Lookup returns the records cached for query in ascending rank order.
	// A miss returns an empty slice and no error.
	Lookup(ctx context.Context, query string) ([]types.ResultRecord, error)

	// Insert stores rec unless (rec.Query, rec.Link) already exists.
	Insert(ctx context.Context, rec types.ResultRecord) error

	// SetRelevance records a relevance score for (query, link). It succeeds
	// whether or not a matching row exists.
	SetRelevance(ctx context.Context, query, link string, score int) error

	// Count returns the number of records cached for query.
	Count(ctx context.Context, query string) (int, error)

	Close() error
}

// SQLStore implements Store on database/sql for SQLite and Postgres.
type SQLStore struct {
	db     *sql.DB
	driver types.StoreDriver
	logger *slog.Logger
}

// Open connects to the configured database and applies schema
// migrations. The SQLite parent directory is created if needed.
func Open(ctx context.Context, cfg types.StoreConfig, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver := cfg.Driver
	if driver == "" {
		driver = types.DriverSQLite
	}

	var dsn string
	switch driver {
	case types.DriverSQLite:
		path := cfg.DSN
		if path == "" {
			path = defaultSQLitePath
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, wrap("open", fmt.Errorf("creating database directory: %w", err))
			}
		}
		dsn = sqliteDSN(path)
	case types.DriverPostgres:
		dsn = cfg.DSN
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, wrap("open", err)
	}
	if driver == types.DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrap("open", err)
	}

	if err := RunMigrations(db, driver, logger); err != nil {
		db.Close()
		return nil, wrap("migrate", err)
	}

	return &SQLStore{db: db, driver: driver, logger: logger}, nil
}

// sqliteDSN appends connection parameters to a SQLite file path.
func sqliteDSN(path string) string {
	params := "_journal_mode=WAL&_busy_timeout=5000"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

// Close releases the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Lookup returns cached records for query ordered by rank.
func (s *SQLStore) Lookup(ctx context.Context, query string) ([]types.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT query, rank, link, COALESCE(title, ''), COALESCE(snippet, ''), html, created, relevance
		 FROM results WHERE query = ? ORDER BY rank ASC, id ASC`), query)
	if err != nil {
		return nil, wrap("lookup", err)
	}
	defer rows.Close()

	records := []types.ResultRecord{}
	for rows.Next() {
		var (
			r         types.ResultRecord
			relevance sql.NullInt64
		)
		if err := rows.Scan(&r.Query, &r.Rank, &r.Link, &r.Title, &r.Snippet, &r.Content, &r.Created, &relevance); err != nil {
			return nil, wrap("lookup", err)
		}
		if relevance.Valid {
			v := int(relevance.Int64)
			r.Relevance = &v
		}
		r.Created = r.Created.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("lookup", err)
	}

	s.logger.Debug("cache lookup", slog.String("query", query), slog.Int("rows", len(records)))
	return records, nil
}

// Insert stores rec. A conflicting (query, link) pair leaves the existing
// row untouched and returns nil.
func (s *SQLStore) Insert(ctx context.Context, rec types.ResultRecord) error {
	if rec.Content == "" {
		return ErrEmptyContent
	}

	res, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO results (query, rank, link, title, snippet, html, created, relevance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (query, link) DO NOTHING`),
		rec.Query, rec.Rank, rec.Link, rec.Title, rec.Snippet, rec.Content, rec.Created.UTC(), nullInt(rec.Relevance),
	)
	if err != nil {
		return wrap("insert", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.logger.Debug("insert conflict ignored", slog.String("query", rec.Query), slog.String("link", rec.Link))
	}
	return nil
}

// SetRelevance updates the relevance score of (query, link). No existence
// check is made: an unknown pair updates nothing and still succeeds.
func (s *SQLStore) SetRelevance(ctx context.Context, query, link string, score int) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE results SET relevance = ? WHERE query = ? AND link = ?`),
		score, query, link,
	)
	return wrap("set relevance", err)
}

// Count returns the number of records cached for query.
func (s *SQLStore) Count(ctx context.Context, query string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM results WHERE query = ?`), query,
	).Scan(&n)
	if err != nil {
		return 0, wrap("count", err)
	}
	return n, nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) rebind(q string) string {
	if s.driver != types.DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
