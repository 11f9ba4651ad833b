package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/server"
)

var serverIngest bool

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	Long: `Serves the query API on server.host:server.port. With --ingest the
source directory is ingested before the server starts accepting requests.
When watch.enabled is set, groups are re-ingested as their files change.`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().BoolVar(&serverIngest, "ingest", false, "ingest the source directory before serving")
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, logger, _, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serverIngest {
		reports, err := components.Indexer.IngestAll(ctx)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		logger.Info("startup ingestion finished", zap.Int("groups", len(reports)))
	}
	if cfg.Watch.Enabled {
		w, err := startWatcher(ctx, cfg.Ingest.Extensions, time.Duration(cfg.Watch.DebounceMS)*time.Millisecond, components, logger)
		if err != nil {
			return err
		}
		defer w.Stop()
	}

	srv := server.NewServer(components.Queries, components.Chunks, components.Records, components.Keywords, cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
