package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "websearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the search API client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIKey authenticates against the Custom Search JSON API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// EngineID is the programmable search engine (cx) identifier.
	EngineID string `json:"engine_id,omitempty" yaml:"engine_id,omitempty" mapstructure:"engine_id"`

	// ResultCount is the target number of results per query (default 20).
	// It also sets the fixed penalty used by the rank filter.
	ResultCount int `json:"result_count" yaml:"result_count" mapstructure:"result_count"`

	// MaxRetries bounds retries on HTTP 429 responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// FetchConfig holds settings for the page fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Workers is the number of pages fetched concurrently (default 1).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// RespectRobots skips links disallowed by the target's robots.txt.
	RespectRobots bool `json:"respect_robots" yaml:"respect_robots" mapstructure:"respect_robots"`

	// MaxBodyBytes truncates page bodies larger than this (default 5 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// RankConfig holds settings for the rank filter.
type RankConfig struct {
	// TrackerWeight scales the raw tracker count added to every score (default 2).
	TrackerWeight float64 `json:"tracker_weight" yaml:"tracker_weight" mapstructure:"tracker_weight"`

	// Allowlist holds host substrings never counted as trackers (CDNs, font hosts).
	Allowlist []string `json:"allowlist" yaml:"allowlist" mapstructure:"allowlist"`
}

// StoreDriver identifies the database/sql driver backing the result cache.
type StoreDriver string

const (
	DriverSQLite   StoreDriver = "sqlite3"
	DriverPostgres StoreDriver = "postgres"
)

// StoreConfig holds settings for the result cache.
type StoreConfig struct {
	// Driver selects the database: sqlite3 or postgres.
	Driver StoreDriver `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN is a file path for sqlite3 or a connection string for postgres.
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
}

// ServerConfig holds settings for the HTTP front end.
type ServerConfig struct {
	Address      string        `json:"address" yaml:"address" mapstructure:"address"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// AppConfig groups all component configurations.
type AppConfig struct {
	Search SearchConfig `json:"search" yaml:"search" mapstructure:"search"`
	Fetch  FetchConfig  `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Rank   RankConfig   `json:"rank" yaml:"rank" mapstructure:"rank"`
	Store  StoreConfig  `json:"store" yaml:"store" mapstructure:"store"`
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}
