package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadwatch/internal/config"
	"github.com/sells-group/leadwatch/internal/model"
)

var (
	fetchFeedURL string
	fetchLimit   int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Preview the normalized feed items",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fetchFeedURL != "" {
			cfg.Feed.URL = fetchFeedURL
		}
		if err := cfg.Validate(config.NeedFeed); err != nil {
			return err
		}

		src := initSource(cfg, "")
		items, err := src.Fetch(cmd.Context())
		if err != nil {
			return eris.Wrapf(err, "fetch feed %s", src.URL())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Feed: %s\n\n", src.URL())
		return printItems(cmd, items, fetchLimit)
	},
}

func printItems(cmd *cobra.Command, items []model.CandidateItem, limit int) error {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PUBLISHED\tSOURCE\tTITLE\tURL")
	for _, it := range items {
		published := "-"
		if !it.PublishedAt.IsZero() {
			published = it.PublishedAt.UTC().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", published, it.Source, it.Title, it.URL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d item(s)\n", len(items))
	return nil
}

func init() {
	fetchCmd.Flags().StringVar(&fetchFeedURL, "feed-url", "", "feed URL (defaults to feed.url)")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 10, "maximum number of items to print (0 for all)")
	rootCmd.AddCommand(fetchCmd)
}
