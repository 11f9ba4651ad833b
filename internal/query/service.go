// Package query answers submitted questions and records every exchange.
package query

import (
	"context"
	"time"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/records"
	"github.com/hyperjump/kotae/internal/retrieval"
	"go.uber.org/zap"
)

// Service runs the retrieve, synthesize, save flow for one question.
type Service struct {
	gate        *retrieval.Gate
	synthesizer *answer.Synthesizer
	records     records.Store
	logger      *zap.Logger
	now         func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for CreateTime.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a query service.
func NewService(gate *retrieval.Gate, synthesizer *answer.Synthesizer, store records.Store, opts ...ServiceOption) *Service {
	s := &Service{
		gate:        gate,
		synthesizer: synthesizer,
		records:     store,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit answers text and saves the completed record. Nothing is saved when
// any step fails, so a stored record is never complete without its answer.
func (s *Service) Submit(ctx context.Context, text string) (*models.QueryRecord, error) {
	req := models.SubmitQueryRequest{QueryText: text}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rec := models.NewQueryRecord(req.QueryText, s.now())

	res, err := s.gate.Retrieve(ctx, rec.QueryText)
	if err != nil {
		return nil, err
	}
	reply, err := s.synthesizer.Synthesize(ctx, rec.QueryText, res.Context)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec.Complete(reply, res.Sources)
	if err := s.records.Save(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("query answered",
		zap.String("query_id", rec.QueryID),
		zap.Bool("grounded", res.Accepted),
		zap.Strings("sources", rec.Sources))
	return rec, nil
}

// Get loads a record. A missing or malformed id yields (nil, false, nil).
func (s *Service) Get(ctx context.Context, id string) (*models.QueryRecord, bool, error) {
	return s.records.Load(ctx, id)
}
