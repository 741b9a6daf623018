package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deusflow/cryptonews/internal/rss"
	"github.com/deusflow/cryptonews/internal/site"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "List the newest articles from the site's RSS feed",
	Long:  "Lists the newest crypto.news articles from the RSS feed. Handy for checking what the next run will pick up; no credentials needed.",
	Args:  cobra.NoArgs,
	RunE:  runFeed,
}

var feedLimit int

func init() {
	feedCmd.Flags().IntVarP(&feedLimit, "limit", "n", 5, "Number of entries to show")
	rootCmd.AddCommand(feedCmd)
}

func runFeed(cmd *cobra.Command, _ []string) error {
	entries, err := rss.LatestEntries(cmd.Context(), site.Default(), feedLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "❌ Не удалось найти новости!")
		return nil
	}
	for i, e := range entries {
		when := "-"
		if !e.Published.IsZero() {
			when = e.Published.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "%d. [%s] %s\n   %s\n", i+1, when, e.Title, e.Link)
	}
	return nil
}
