package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var relevantCmd = &cobra.Command{
	Use:   "relevant",
	Short: "Mark a cached result as relevant for a query",
	Long: `Relevant stores a relevance score for the (query, link) pair. A pair that is
not cached is accepted and changes nothing.`,
	RunE: runRelevant,
}

func init() {
	relevantCmd.Flags().String("query", "", "query the result was returned for")
	relevantCmd.Flags().String("link", "", "result link")
	relevantCmd.MarkFlagRequired("query")
	relevantCmd.MarkFlagRequired("link")

	rootCmd.AddCommand(relevantCmd)
}

func runRelevant(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	link, _ := cmd.Flags().GetString("link")

	a, err := newApp(cmd.Context(), appConfig, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.MarkRelevant(cmd.Context(), query, link); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "marked %s relevant for %q\n", link, query)
	return nil
}
