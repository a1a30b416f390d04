// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the websearch CLI and server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/websearch/internal/engine"
	"github.com/pdiddy/websearch/internal/fetch"
	"github.com/pdiddy/websearch/internal/logging"
	"github.com/pdiddy/websearch/internal/rank"
	"github.com/pdiddy/websearch/internal/search"
	"github.com/pdiddy/websearch/internal/secrets"
	"github.com/pdiddy/websearch/internal/store"
	"github.com/pdiddy/websearch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// appConfig is populated from viper before any subcommand runs.
	appConfig types.AppConfig

	logger *slog.Logger
)

// rootCmd is the base command for the websearch CLI.
var rootCmd = &cobra.Command{
	Use:   "websearch",
	Short: "Cached web search with page quality ranking",
	Long: `websearch answers queries from a local result cache. On a cache miss it
queries the search API, fetches every result page, stores the pages, and
re-ranks them by tracker density, content thinness, and dated titles.

Run "websearch serve" for the web interface or "websearch search" for a
one-off query.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&appConfig); err != nil {
			return fmt.Errorf("decoding config: %w", err)
		}
		logger = logging.New(appConfig.Log, os.Stderr)
		slog.SetDefault(logger)

		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		secrets.ApplySearch(&appConfig.Search, s)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./websearch.yaml or ~/.config/websearch/websearch.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of secret files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// setDefaults registers every configuration key so environment variables
// are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.engine_id", "")
	v.SetDefault("search.result_count", 20)
	v.SetDefault("search.timeout", "10s")
	v.SetDefault("search.user_agent", "websearch/0.1")
	v.SetDefault("search.max_retries", 3)

	v.SetDefault("fetch.timeout", "5s")
	v.SetDefault("fetch.workers", 1)
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("fetch.max_body_bytes", 5<<20)
	v.SetDefault("fetch.user_agent", "websearch/0.1")

	v.SetDefault("rank.tracker_weight", 2)
	v.SetDefault("rank.allowlist", rank.DefaultAllowlist)

	v.SetDefault("store.driver", string(types.DriverSQLite))
	v.SetDefault("store.dsn", "data/links.db")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func initConfig() {
	setDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("websearch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "websearch"))
		}
	}

	viper.SetEnvPrefix("WEBSEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

// app holds the wired components shared by the subcommands.
type app struct {
	store   *store.SQLStore
	fetcher *fetch.Fetcher
	engine  *engine.Engine
}

// newApp opens the store and wires the engine from cfg.
func newApp(ctx context.Context, cfg types.AppConfig, logger *slog.Logger) (*app, error) {
	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	fetcher, err := fetch.New(cfg.Fetch, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	eng := engine.New(st,
		search.NewClient(cfg.Search, logger),
		fetcher,
		engine.WithResultCount(cfg.Search.ResultCount),
		engine.WithRanker(rank.New(cfg.Rank, cfg.Search.ResultCount, logger)),
		engine.WithLogger(logger),
	)

	return &app{store: st, fetcher: fetcher, engine: eng}, nil
}

func (a *app) Close() error {
	a.fetcher.Release()
	return a.store.Close()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
