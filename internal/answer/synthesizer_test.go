package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name     string
		question string
		context  string
		want     string
	}{
		{
			name:     "with context",
			question: "What is the fee?",
			context:  "Fee is RM5.\n\n---\n\nNo fee online.",
			want: "Answer the question based only on the following context:\n\nFee is RM5.\n\n---\n\nNo fee online.\n\n---\n\n" +
				"Answer the question based on the above context: What is the fee?",
		},
		{
			name:     "without context",
			question: "hello there",
			want:     "You are a helpful assistant. User said: hello there",
		},
		{
			name:     "markup is not escaped",
			question: "is <b> & \"x\" ok?",
			want:     "You are a helpful assistant. User said: is <b> & \"x\" ok?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPrompt(tt.question, tt.context)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("BuildPrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSynthesize(t *testing.T) {
	m := &llm.Mock{Reply: "Call 1-300-88-6688."}
	s := NewSynthesizer(m, nil)
	got, err := s.Synthesize(context.Background(), "How can I contact the bank?", "Call 1-300-88-6688.")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Call 1-300-88-6688." {
		t.Errorf("answer = %q", got)
	}
	prompts := m.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("expected one model call, got %d", len(prompts))
	}
}

func TestSynthesize_modelFailure(t *testing.T) {
	s := NewSynthesizer(&llm.Mock{Err: errors.New("503")}, nil)
	_, err := s.Synthesize(context.Background(), "q", "")
	if !errors.Is(err, models.ErrModelService) {
		t.Errorf("expected ErrModelService, got %v", err)
	}
}
