package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/indexer"
)

var (
	ingestReset bool
	ingestYes   bool
	ingestGroup string
	resetYes    bool
)

var errNotConfirmed = errors.New("reset clears the whole chunk index and cannot be undone; pass --yes to confirm")

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add new document chunks to the index",
	Long: `Loads every document group under ingest.source_dir (each immediate
subdirectory is a group; loose files form the "." group), splits pages into
chunks and adds chunks whose id is not yet indexed. Existing chunks are never
changed; use --reset --yes to rebuild from scratch.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the chunk index and keyword index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return errNotConfirmed
		}
		cfg, logger, _, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, false)
		if err != nil {
			return err
		}
		defer components.Close()
		if err := components.Indexer.Reset(commandContext(cmd)); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		cmd.Println("Chunk index cleared.")
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "clear the index before ingesting")
	ingestCmd.Flags().BoolVar(&ingestYes, "yes", false, "confirm --reset")
	ingestCmd.Flags().StringVar(&ingestGroup, "group", "", "ingest only this group")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm clearing the index")
	rootCmd.AddCommand(ingestCmd, resetCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestReset && !ingestYes {
		return errNotConfirmed
	}
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

	ctx := commandContext(cmd)
	if ingestReset {
		if err := components.Indexer.Reset(ctx); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
	}

	var reports []indexer.GroupReport
	if ingestGroup != "" {
		rep, ierr := components.Indexer.IngestGroup(ctx, ingestGroup)
		if ierr != nil {
			rep.Error = ierr.Error()
		}
		reports, err = []indexer.GroupReport{rep}, ierr
	} else {
		reports, err = components.Indexer.IngestAll(ctx)
	}
	if werr := cli.WriteGroupReports(cmd.OutOrStdout(), reports, format); werr != nil {
		return werr
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}
