package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/apiclient"
	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/storage"
)

var statusServerURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index, record store and configuration status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusServerURL, "server", "", "server URL (empty = use local storage)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, logger, format, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var status cli.Status
	if statusServerURL != "" {
		client := apiclient.New("kotae", 30*time.Second, 0)
		if err := client.GetJSON(commandContext(cmd), strings.TrimRight(statusServerURL, "/")+"/api/v1/status", &status); err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		return cli.WriteStatus(cmd.OutOrStdout(), &status, format)
	}

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		return err
	}
	defer components.Close()
	ctx := commandContext(cmd)
	if status.Chunks, err = components.Chunks.Count(ctx); err != nil {
		return fmt.Errorf("count chunks failed: %w", err)
	}
	if status.Queries, err = components.Records.Count(ctx); err != nil {
		return fmt.Errorf("count records failed: %w", err)
	}
	if n, err := components.Keywords.DocCount(); err == nil {
		status.KeywordChunks = &n
	}
	if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.IndexPath, cfg.Storage.KeywordIndexPath, cfg.Storage.RecordsPath); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	status.Config = cfg.Summary()
	return cli.WriteStatus(cmd.OutOrStdout(), &status, format)
}
