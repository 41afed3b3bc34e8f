package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadwatch/internal/config"
	"github.com/sells-group/leadwatch/internal/pipeline"
)

var (
	runFeedURL string
	runMigrate bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the feed once and store new leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runFeedURL != "" {
			cfg.Feed.URL = runFeedURL
		}
		if err := cfg.Validate(config.NeedStore, config.NeedChat, config.NeedFeed); err != nil {
			return err
		}

		lock := flock.New(cfg.Pipeline.LockFile)
		locked, err := lock.TryLock()
		if err != nil {
			return eris.Wrap(err, "acquire run lock")
		}
		if !locked {
			return eris.Errorf("another run holds %s", cfg.Pipeline.LockFile)
		}
		defer func() { _ = lock.Unlock() }()

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if runMigrate || cfg.Store.Driver == "sqlite" {
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
		}

		enr, err := initEnricher(cfg)
		if err != nil {
			return err
		}

		p := pipeline.New(pipelineConfig(cfg), initSource(cfg, ""), enr, st, initCalculator(cfg))

		stats, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		fmt.Fprint(cmd.OutOrStdout(), pipeline.FormatSummary(stats))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runFeedURL, "feed-url", "", "feed URL (defaults to feed.url)")
	runCmd.Flags().BoolVar(&runMigrate, "migrate", false, "apply the schema before running")
	rootCmd.AddCommand(runCmd)
}
