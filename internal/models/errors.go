package models

import "errors"

// Error kinds. Failures are wrapped with %w so callers match them with errors.Is.
// A missing record or an empty search result is not an error.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrLoad             = errors.New("document load failed")
	ErrEmbeddingService = errors.New("embedding service failed")
	ErrModelService     = errors.New("model service failed")
	ErrStorage          = errors.New("storage failed")
)
