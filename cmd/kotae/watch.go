package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest the source directory and keep it ingested",
	Long: `Ingests every group once, then watches ingest.source_dir and re-ingests
a group after its files stop changing. Removed files stay indexed; use
reset to drop them.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "quiet period before a changed group is ingested (default watch.debounce_ms)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, format, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, err := components.Indexer.IngestAll(ctx)
	if werr := cli.WriteGroupReports(cmd.OutOrStdout(), reports, format); werr != nil {
		return werr
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	debounce := watchDebounce
	if debounce <= 0 {
		debounce = time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	}
	w, err := startWatcher(ctx, cfg.Ingest.Extensions, debounce, components, logger)
	if err != nil {
		return err
	}
	defer w.Stop()
	cmd.Printf("Watching %s (Ctrl-C to stop)\n", components.Indexer.SourceDir())
	<-ctx.Done()
	return nil
}

// startWatcher re-ingests each group the watcher reports as changed. It stops
// when ctx is cancelled.
func startWatcher(ctx context.Context, extensions []string, debounce time.Duration, components *Components, logger *zap.Logger) (*watcher.Watcher, error) {
	idx := components.Indexer
	w := watcher.NewWatcher(idx.SourceDir(), extensions, idx.GroupOf,
		func(group string) {
			rep, err := idx.IngestGroup(ctx, group)
			if err != nil {
				logger.Warn("watch ingest failed", zap.String("group", group), zap.Error(err))
				return
			}
			logger.Info("watch ingested group", zap.String("group", group), zap.Int("added", rep.Added))
		},
		watcher.WithLogger(logger),
		watcher.WithDebounce(debounce),
	)
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	return w, nil
}
