package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index in sync until interrupted",
	Long: `Checks the index once, then serves reindex requests from the index and
republishes records as the records file changes. Stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if coordinator == nil {
		return notConfigured("reindex")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	return watch(ctx)
}

// watch runs the startup check and then follows requests and record
// changes until ctx is done.
func watch(ctx context.Context) error {
	coordinator.CheckAndReindex(ctx, func(res domain.CheckResult) {
		logger.Info("Startup check: %s", res.Outcome)
	})

	if notifier == nil && watcher == nil {
		logger.Warn("Nothing to watch: no reindex requests and no records file")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if notifier != nil {
		g.Go(func() error {
			return coordinator.Serve(gctx, notifier)
		})
	}
	if watcher != nil {
		g.Go(func() error {
			return coordinator.Follow(gctx, watcher)
		})
	}
	logger.Info("Watching index %s", indexLabel())

	err := g.Wait()
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}

func indexLabel() string {
	if options.IndexName != "" {
		return options.IndexName
	}
	return domain.DefaultIndexName
}
