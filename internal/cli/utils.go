// Package cli provides output helpers for the kotae command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRecord writes a query record. A nil record prints as "not found" in
// text and null in JSON.
func WriteRecord(w io.Writer, rec *models.QueryRecord, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, rec)
	}
	if rec == nil {
		fmt.Fprintln(w, "Query not found.")
		return nil
	}
	fmt.Fprintf(w, "Query ID: %s\n", rec.QueryID)
	fmt.Fprintf(w, "Question: %s\n", rec.QueryText)
	if !rec.IsComplete {
		fmt.Fprintln(w, "Status:   pending")
		return nil
	}
	fmt.Fprintf(w, "\n%s\n\n", rec.Answer())
	if len(rec.Sources) == 0 {
		fmt.Fprintln(w, "Sources: none (answered without document context)")
		return nil
	}
	fmt.Fprintln(w, "Sources:")
	for _, s := range rec.Sources {
		fmt.Fprintf(w, "  - %s\n", s)
	}
	return nil
}

// WriteGroupReports writes one line per ingested group and a total.
func WriteGroupReports(w io.Writer, reports []indexer.GroupReport, format OutputFormat) error {
	if format == OutputJSON {
		if reports == nil {
			reports = []indexer.GroupReport{}
		}
		return WriteJSON(w, reports)
	}
	if len(reports) == 0 {
		fmt.Fprintln(w, "No document groups found.")
		return nil
	}
	added := 0
	for _, r := range reports {
		fmt.Fprintf(w, "%-24s documents=%d chunks=%d existing=%d added=%d",
			r.Group, r.Documents, r.Chunks, r.Existing, r.Added)
		if r.Stale > 0 {
			fmt.Fprintf(w, " stale=%d", r.Stale)
		}
		if r.Error != "" {
			fmt.Fprintf(w, " error=%q", r.Error)
		}
		fmt.Fprintln(w)
		added += r.Added
	}
	fmt.Fprintf(w, "\nAdded %d chunks across %d groups\n", added, len(reports))
	return nil
}

// WriteChunkResults writes keyword search hits.
func WriteChunkResults(w io.Writer, query string, results []*keyword.Result, format OutputFormat) error {
	if format == OutputJSON {
		if results == nil {
			results = []*keyword.Result{}
		}
		return WriteJSON(w, map[string]any{"query": query, "results": results})
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}
	fmt.Fprintf(w, "\nFound %d chunks\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] %s | Score: %.4f\n", i+1, r.ID, r.Score)
		if len(r.Fragments) > 0 {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(stripMarks(r.Fragments[0]), 200))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// stripMarks removes the highlighter's <mark> tags for terminal output.
func stripMarks(s string) string {
	return strings.NewReplacer("<mark>", "", "</mark>", "").Replace(s)
}
