package cli

import (
	"fmt"
	"io"
	"sort"
)

// Status is the body of GET /api/v1/status.
type Status struct {
	Chunks         int            `json:"chunks"`
	Queries        int            `json:"queries"`
	KeywordChunks  *uint64        `json:"keyword_chunks,omitempty"`
	DiskUsageBytes *int64         `json:"disk_usage_bytes,omitempty"`
	Config         map[string]any `json:"config,omitempty"`
}

// WriteStatus writes index and store counts followed by the configuration.
func WriteStatus(w io.Writer, s *Status, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, s)
	}
	fmt.Fprintf(w, "chunks:             %d   # chunks in the vector index\n", s.Chunks)
	if s.KeywordChunks != nil {
		fmt.Fprintf(w, "keyword_chunks:     %d   # chunks in the keyword index\n", *s.KeywordChunks)
	}
	fmt.Fprintf(w, "queries:            %d   # stored query records\n", s.Queries)
	if s.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # indices and records on disk\n", *s.DiskUsageBytes)
	}
	if len(s.Config) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		keys := make([]string, 0, len(s.Config))
		for k := range s.Config {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%-20s%v\n", k+":", s.Config[k])
		}
	}
	return nil
}
