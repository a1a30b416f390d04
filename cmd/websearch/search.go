package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/websearch/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search and print ranked results",
	Long: `Search answers the query from the cache, or on a miss queries the search
API, fetches and stores every result page, then prints the results ranked by
page quality. Use --raw to print the stored search ranking instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("format", "table", "output format: table, json, yaml")
	searchCmd.Flags().Bool("raw", false, "skip quality re-ranking")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	raw, _ := cmd.Flags().GetBool("raw")
	query := strings.Join(args, " ")

	a, err := newApp(cmd.Context(), appConfig, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var results []types.ResultRecord
	if raw {
		results, err = a.engine.Search(cmd.Context(), query)
	} else {
		results, err = a.engine.SearchRanked(cmd.Context(), query)
	}
	if err != nil {
		return err
	}

	return writeResults(cmd.OutOrStdout(), format, query, results)
}

// searchOutput is the document written by the json and yaml formats.
type searchOutput struct {
	Query   string               `json:"query" yaml:"query"`
	Results []types.ResultRecord `json:"results" yaml:"results"`
}

// writeResults prints results in format, always without page content.
func writeResults(w io.Writer, format, query string, results []types.ResultRecord) error {
	out := searchOutput{Query: query, Results: make([]types.ResultRecord, len(results))}
	for i, r := range results {
		out.Results[i] = r.WithoutContent()
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tTITLE\tLINK")
		for _, r := range out.Results {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Rank, truncate(r.Title, 60), r.Link)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (want table, json, or yaml)", format)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
