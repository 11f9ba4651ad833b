package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestSubmitQueryRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *SubmitQueryRequest
		want    string
		wantErr bool
	}{
		{"empty query", &SubmitQueryRequest{QueryText: ""}, "", true},
		{"whitespace only", &SubmitQueryRequest{QueryText: "  \n\t"}, "", true},
		{"valid query", &SubmitQueryRequest{QueryText: "How can I contact Maybank?"}, "How can I contact Maybank?", false},
		{"trims surrounding space", &SubmitQueryRequest{QueryText: "  hello "}, "hello", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error should wrap ErrInvalidInput: %v", err)
			}
			if !tt.wantErr && tt.req.QueryText != tt.want {
				t.Errorf("QueryText = %q, want %q", tt.req.QueryText, tt.want)
			}
		})
	}
}

func TestNewQueryRecord(t *testing.T) {
	now := time.Unix(1700000000, 0)
	a := NewQueryRecord("q", now)
	b := NewQueryRecord("q", now)
	if !ValidQueryID(a.QueryID) {
		t.Errorf("query id %q is not 32 hex chars", a.QueryID)
	}
	if a.QueryID == b.QueryID {
		t.Error("query ids should be unique")
	}
	if a.CreateTime != 1700000000 {
		t.Errorf("create_time = %d", a.CreateTime)
	}
	if a.IsComplete || a.AnswerText != nil {
		t.Error("new record should be incomplete without answer")
	}
	if a.Sources == nil {
		t.Error("sources should be empty, not nil")
	}
}

func TestQueryRecord_Complete(t *testing.T) {
	r := NewQueryRecord("q", time.Now())
	r.Complete("answer", nil)
	if !r.IsComplete || r.Answer() != "answer" {
		t.Errorf("unexpected record: %+v", r)
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"query_id", "create_time", "query_text", "answer_text", "sources", "is_complete"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %s in %s", key, data)
		}
	}
	if src, ok := m["sources"].([]any); !ok || len(src) != 0 {
		t.Errorf("sources should serialize as empty array, got %v", m["sources"])
	}
}

func TestValidQueryID(t *testing.T) {
	tests := map[string]bool{
		"0123456789abcdef0123456789abcdef":     true,
		"0123456789ABCDEF0123456789ABCDEF":     false,
		"0123456789abcdef":                     false,
		"not-a-uuid":                           false,
		"01234567-89ab-cdef-0123-456789abcdef": false,
		"": false,
	}
	for id, want := range tests {
		if got := ValidQueryID(id); got != want {
			t.Errorf("ValidQueryID(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestChunkID(t *testing.T) {
	if got := ChunkID("data/a.pdf", 2, 0); got != "data/a.pdf:2:0" {
		t.Errorf("ChunkID = %s", got)
	}
}
