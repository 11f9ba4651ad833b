package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/apiclient"
	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/models"
)

var serverURL string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question and store the answer",
	Long: `Answers a question from the indexed documents. Quoting is optional:
all arguments are joined into one question. With --server the question is
sent to a running kotae server instead of using local storage.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var getCmd = &cobra.Command{
	Use:   "get <query-id>",
	Short: "Show a stored query record",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	for _, c := range []*cobra.Command{askCmd, getCmd} {
		c.Flags().StringVar(&serverURL, "server", "", "server URL (empty = use local storage)")
	}
	rootCmd.AddCommand(askCmd, getCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	text := joinArgs(args)
	if text == "" {
		return errors.New("question cannot be empty")
	}
	cfg, logger, format, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var rec *models.QueryRecord
	if serverURL != "" {
		rec = &models.QueryRecord{}
		client := apiclient.New("kotae", time.Duration(cfg.LLM.TimeoutSecs+cfg.Embedding.TimeoutSecs)*time.Second, 0)
		err = client.PostJSON(commandContext(cmd), strings.TrimRight(serverURL, "/")+"/submit_query",
			models.SubmitQueryRequest{QueryText: text}, rec)
	} else {
		components, cerr := initializeComponents(cfg, logger, true)
		if cerr != nil {
			return cerr
		}
		defer components.Close()
		rec, err = components.Queries.Submit(commandContext(cmd), text)
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return cli.WriteRecord(cmd.OutOrStdout(), rec, format)
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, logger, format, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var rec *models.QueryRecord
	if serverURL != "" {
		client := apiclient.New("kotae", 30*time.Second, 0)
		err = client.GetJSON(commandContext(cmd),
			strings.TrimRight(serverURL, "/")+"/get_query?query_id="+url.QueryEscape(args[0]), &rec)
	} else {
		components, cerr := initializeComponents(cfg, logger, true)
		if cerr != nil {
			return cerr
		}
		defer components.Close()
		rec, _, err = components.Queries.Get(commandContext(cmd), args[0])
	}
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}
	return cli.WriteRecord(cmd.OutOrStdout(), rec, format)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
