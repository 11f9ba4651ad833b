package vector

import (
	"fmt"

	"github.com/hyperjump/kotae/pkg/utils"
)

// Metric names a distance function. Smaller distance means more similar.
type Metric string

const (
	// MetricL2 is squared euclidean distance.
	MetricL2 Metric = "l2"
	// MetricCosine is 1 - cosine similarity.
	MetricCosine Metric = "cosine"
)

// ParseMetric validates a metric name. Empty selects MetricL2.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricL2, "":
		return MetricL2, nil
	case MetricCosine:
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("unknown distance metric: %s (supported: l2, cosine)", s)
	}
}

// Distance returns the distance between a and b under m.
func (m Metric) Distance(a, b []float32) float64 {
	if m == MetricCosine {
		return utils.CosineDistance(a, b)
	}
	return utils.SquaredL2(a, b)
}
