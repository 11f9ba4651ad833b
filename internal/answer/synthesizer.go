// Package answer builds prompts from retrieved context and asks a language
// model for the answer.
package answer

import (
	"context"
	"strings"
	"text/template"

	"github.com/hyperjump/kotae/internal/llm"
	"go.uber.org/zap"
)

var (
	contextPrompt = template.Must(template.New("context").Parse(
		"Answer the question based only on the following context:\n\n{{.Context}}\n\n---\n\n" +
			"Answer the question based on the above context: {{.Question}}"))
	barePrompt = template.Must(template.New("bare").Parse(
		"You are a helpful assistant. User said: {{.Question}}"))
)

type promptData struct {
	Context  string
	Question string
}

// BuildPrompt renders the grounded prompt when context is non-empty and the
// bare conversational prompt otherwise.
func BuildPrompt(question, context string) (string, error) {
	tmpl := barePrompt
	if context != "" {
		tmpl = contextPrompt
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, promptData{Context: context, Question: question}); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Synthesizer turns a question and optional context into an answer with a
// single model call. It keeps no state between calls.
type Synthesizer struct {
	client llm.Client
	logger *zap.Logger
}

// NewSynthesizer creates a synthesizer. logger may be nil.
func NewSynthesizer(client llm.Client, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{client: client, logger: logger}
}

// Synthesize returns the model's answer. Model failures are returned as-is.
func (s *Synthesizer) Synthesize(ctx context.Context, question, context string) (string, error) {
	prompt, err := BuildPrompt(question, context)
	if err != nil {
		return "", err
	}
	s.logger.Debug("synthesizing answer",
		zap.String("model", s.client.Name()),
		zap.Bool("with_context", context != ""))
	return s.client.Generate(ctx, prompt)
}
