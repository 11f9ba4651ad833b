package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var queryIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// QueryRecord is the persisted result of one question/answer exchange.
// QueryID and CreateTime are set at creation and never change.
type QueryRecord struct {
	QueryID    string   `json:"query_id"`
	CreateTime int64    `json:"create_time"`
	QueryText  string   `json:"query_text"`
	AnswerText *string  `json:"answer_text"`
	Sources    []string `json:"sources"`
	IsComplete bool     `json:"is_complete"`
}

// NewQueryRecord returns an incomplete record for text with a fresh id.
func NewQueryRecord(text string, now time.Time) *QueryRecord {
	return &QueryRecord{
		QueryID:    strings.ReplaceAll(uuid.NewString(), "-", ""),
		CreateTime: now.Unix(),
		QueryText:  text,
		Sources:    []string{},
	}
}

// Complete attaches the answer and its sources and marks the record complete.
func (r *QueryRecord) Complete(answer string, sources []string) {
	if sources == nil {
		sources = []string{}
	}
	r.AnswerText = &answer
	r.Sources = sources
	r.IsComplete = true
}

// Answer returns the answer text, or "" while incomplete.
func (r *QueryRecord) Answer() string {
	if r.AnswerText == nil {
		return ""
	}
	return *r.AnswerText
}

// ValidQueryID reports whether id has the shape of a query id (32 lowercase hex).
func ValidQueryID(id string) bool {
	return queryIDPattern.MatchString(id)
}

// SubmitQueryRequest is the body of a query submission.
type SubmitQueryRequest struct {
	QueryText string `json:"query_text"`
}

// Validate trims the query text and rejects empty submissions.
func (q *SubmitQueryRequest) Validate() error {
	q.QueryText = strings.TrimSpace(q.QueryText)
	if q.QueryText == "" {
		return fmt.Errorf("%w: query_text cannot be empty", ErrInvalidInput)
	}
	return nil
}
