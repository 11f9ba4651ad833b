package main

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/apiclient"
	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/keyword"
)

var (
	chunksLimit     int
	chunksFuzzy     bool
	chunksServerURL string
)

var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Inspect indexed chunks",
}

var chunksSearchCmd = &cobra.Command{
	Use:   "search <terms>",
	Short: "Keyword search over indexed chunk text",
	Long: `Looks up chunks by keyword, to check what the index holds for a topic.
Use --fuzzy to tolerate typos.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChunksSearch,
}

func init() {
	chunksSearchCmd.Flags().IntVarP(&chunksLimit, "limit", "n", 10, "maximum number of results")
	chunksSearchCmd.Flags().BoolVar(&chunksFuzzy, "fuzzy", false, "enable fuzzy matching")
	chunksSearchCmd.Flags().StringVar(&chunksServerURL, "server", "", "server URL (empty = use local storage)")
	chunksCmd.AddCommand(chunksSearchCmd)
	rootCmd.AddCommand(chunksCmd)
}

func runChunksSearch(cmd *cobra.Command, args []string) error {
	text := joinArgs(args)
	if text == "" {
		return errors.New("search terms cannot be empty")
	}
	if chunksLimit <= 0 {
		return errors.New("--limit must be positive")
	}
	cfg, logger, format, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var results []*keyword.Result
	if chunksServerURL != "" {
		q := url.Values{}
		q.Set("q", text)
		q.Set("limit", strconv.Itoa(chunksLimit))
		q.Set("fuzzy", strconv.FormatBool(chunksFuzzy))
		var resp struct {
			Results []*keyword.Result `json:"results"`
		}
		client := apiclient.New("kotae", 30*time.Second, 0)
		if err := client.GetJSON(commandContext(cmd), strings.TrimRight(chunksServerURL, "/")+"/api/v1/chunks/search?"+q.Encode(), &resp); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		results = resp.Results
	} else {
		components, err := initializeComponents(cfg, logger, false)
		if err != nil {
			return err
		}
		defer components.Close()
		results, err = components.Keywords.Search(commandContext(cmd), text, chunksLimit, &keyword.SearchOptions{
			FuzzyEnabled: chunksFuzzy,
			Highlight:    true,
		})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
	}
	return cli.WriteChunkResults(cmd.OutOrStdout(), text, results, format)
}
