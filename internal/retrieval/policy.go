// Package retrieval finds the chunks most similar to a query and decides
// whether they are relevant enough to ground an answer.
package retrieval

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// Policy decides whether a ranked hit list is relevant to the query. Hits are
// ordered by ascending distance and are never empty when Accept is called.
type Policy interface {
	Name() string
	Accept(hits []models.ScoredChunk) bool
}

// AbsolutePolicy accepts when the closest hit is within Threshold.
type AbsolutePolicy struct {
	Threshold float64
}

func (p AbsolutePolicy) Name() string { return config.PolicyAbsolute }

func (p AbsolutePolicy) Accept(hits []models.ScoredChunk) bool {
	return hits[0].Distance <= p.Threshold
}

// RelativePolicy accepts when the closest hit is noticeably nearer than the
// average hit: min < avg * Factor.
type RelativePolicy struct {
	Factor float64
}

func (p RelativePolicy) Name() string { return config.PolicyRelative }

func (p RelativePolicy) Accept(hits []models.ScoredChunk) bool {
	lowest := hits[0].Distance
	var sum float64
	for _, h := range hits {
		sum += h.Distance
		lowest = min(lowest, h.Distance)
	}
	avg := sum / float64(len(hits))
	return lowest < avg*p.Factor
}

// NewPolicy builds the policy selected by cfg.Policy. Unset thresholds take
// the config defaults.
func NewPolicy(cfg config.RetrievalConfig) (Policy, error) {
	switch cfg.Policy {
	case config.PolicyAbsolute, "":
		threshold := config.DefaultAbsoluteThreshold
		if cfg.AbsoluteThreshold != nil {
			threshold = *cfg.AbsoluteThreshold
		}
		return AbsolutePolicy{Threshold: threshold}, nil
	case config.PolicyRelative:
		factor := config.DefaultRelativeFactor
		if cfg.RelativeFactor != nil {
			factor = *cfg.RelativeFactor
		}
		return RelativePolicy{Factor: factor}, nil
	default:
		return nil, fmt.Errorf("unknown retrieval policy: %s (supported: absolute, relative)", cfg.Policy)
	}
}
