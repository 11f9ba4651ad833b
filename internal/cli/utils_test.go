package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteRecord_text(t *testing.T) {
	rec := models.NewQueryRecord("How can I contact the bank?", time.Now())
	rec.Complete("Call the hotline.", []string{"faq.pdf:0:0", "faq.pdf:0:1"})
	var buf bytes.Buffer
	if err := WriteRecord(&buf, rec, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{rec.QueryID, "Call the hotline.", "  - faq.pdf:0:1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRecord_ungroundedAndMissing(t *testing.T) {
	rec := models.NewQueryRecord("hi", time.Now())
	rec.Complete("Hello!", nil)
	var buf bytes.Buffer
	_ = WriteRecord(&buf, rec, OutputText)
	if !strings.Contains(buf.String(), "Sources: none") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	buf.Reset()
	_ = WriteRecord(&buf, nil, OutputText)
	if !strings.Contains(buf.String(), "not found") {
		t.Errorf("unexpected output: %s", buf.String())
	}

	buf.Reset()
	_ = WriteRecord(&buf, nil, OutputJSON)
	if strings.TrimSpace(buf.String()) != "null" {
		t.Errorf("json of nil record = %s", buf.String())
	}
}

func TestWriteRecord_JSON(t *testing.T) {
	rec := models.NewQueryRecord("q", time.Unix(1700000000, 0))
	rec.Complete("a", []string{"x:0:0"})
	var buf bytes.Buffer
	if err := WriteRecord(&buf, rec, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"query_id", "create_time", "query_text", "answer_text", "sources", "is_complete"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %s", key)
		}
	}
}

func TestWriteGroupReports(t *testing.T) {
	reports := []indexer.GroupReport{
		{Group: ".", Documents: 1, Chunks: 2, Added: 2},
		{Group: "cards", Documents: 3, Chunks: 9, Existing: 9, Stale: 1},
		{Group: "broken", Error: "document load failed: bad.pdf"},
	}
	var buf bytes.Buffer
	if err := WriteGroupReports(&buf, reports, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"stale=1", `error="document load failed: bad.pdf"`, "Added 2 chunks across 3 groups"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteGroupReports(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON reports = %s", buf.String())
	}
}

func TestWriteChunkResults(t *testing.T) {
	results := []*keyword.Result{{ID: "fees.pdf:1:0", Score: 1.25, Fragments: []string{"annual <mark>fee</mark> waived"}}}
	var buf bytes.Buffer
	if err := WriteChunkResults(&buf, "fee", results, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "[1] fees.pdf:1:0") || !strings.Contains(out, "annual fee waived") {
		t.Errorf("unexpected output:\n%s", out)
	}

	buf.Reset()
	_ = WriteChunkResults(&buf, "none", nil, OutputText)
	if !strings.Contains(buf.String(), "No results") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	disk := int64(4096)
	s := &Status{Chunks: 12, Queries: 3, DiskUsageBytes: &disk, Config: map[string]any{"retrieval_policy": "absolute", "top_k": 3}}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, s, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"chunks:             12", "queries:            3", "disk_usage_bytes:   4096", "retrieval_policy:   absolute"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "retrieval_policy") > strings.Index(out, "top_k") {
		t.Error("config keys should be sorted")
	}
}
