// Package scoring turns heterogeneous strategy metrics into a single
// composite score per candidate and produces stable rankings, optionally
// under several competing weight sets with a consensus ordering.
package scoring

import (
	"math"

	"github.com/delatour/stratgen/models"
)

// Normalizer maps a metric's raw population values into [0, 1].
type Normalizer int

const (
	// NormMax divides by the population maximum. Suited to magnitude
	// metrics that are zero at their best.
	NormMax Normalizer = iota
	// NormMinMax rescales the population range onto [0, 1].
	NormMinMax
)

// Scorer maps a normalized value onto a preference score in [0, 1].
type Scorer int

const (
	HigherBetter Scorer = iota
	LowerBetter
	// ModerateBetter peaks at the middle of the population range and
	// decays linearly toward both extremes.
	ModerateBetter
)

// Metric is one scoring criterion: how to read it off a record, how to
// normalize it across the population and which direction is preferable.
type Metric struct {
	Name      string
	Weight    float64
	Extract   func(*models.StrategyRecord) float64
	Normalize Normalizer
	Score     Scorer
}

// DefaultMetrics returns the built-in criterion set. Expected P&L dominates;
// the Greek-neutrality and dispersion terms act as tie-breakers. Weights are
// renormalized before use, so the absolute values only fix proportions.
func DefaultMetrics() []Metric {
	return []Metric{
		{
			Name:      "average_pnl",
			Weight:    0.20,
			Extract:   func(r *models.StrategyRecord) float64 { return r.AveragePnL },
			Normalize: NormMinMax,
			Score:     HigherBetter,
		},
		{
			Name:      "delta_neutral",
			Weight:    0.08,
			Extract:   func(r *models.StrategyRecord) float64 { return math.Abs(r.TotalDelta) },
			Normalize: NormMax,
			Score:     LowerBetter,
		},
		{
			Name:      "gamma_low",
			Weight:    0.05,
			Extract:   func(r *models.StrategyRecord) float64 { return math.Abs(r.TotalGamma) },
			Normalize: NormMax,
			Score:     LowerBetter,
		},
		{
			Name:      "vega_low",
			Weight:    0.05,
			Extract:   func(r *models.StrategyRecord) float64 { return math.Abs(r.TotalVega) },
			Normalize: NormMax,
			Score:     LowerBetter,
		},
		{
			Name:      "theta_positive",
			Weight:    0.05,
			Extract:   func(r *models.StrategyRecord) float64 { return r.TotalTheta },
			Normalize: NormMinMax,
			Score:     HigherBetter,
		},
		{
			Name:      "sigma_pnl",
			Weight:    0.05,
			Extract:   func(r *models.StrategyRecord) float64 { return r.SigmaPnL },
			Normalize: NormMax,
			Score:     LowerBetter,
		},
		{
			Name:      "implied_vol_moderate",
			Weight:    0.04,
			Extract:   func(r *models.StrategyRecord) float64 { return r.AvgImpliedVolatility },
			Normalize: NormMinMax,
			Score:     ModerateBetter,
		},
	}
}

// MetricNames lists the default metric names, in weight order.
func MetricNames() []string {
	metrics := DefaultMetrics()
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = m.Name
	}
	return names
}

// withWeights applies a partial weight override by metric name and drops
// metrics whose weight ends up non-positive.
func withWeights(metrics []Metric, weights map[string]float64) []Metric {
	out := make([]Metric, 0, len(metrics))
	for _, m := range metrics {
		if weights != nil {
			if w, ok := weights[m.Name]; ok {
				m.Weight = w
			}
		}
		if m.Weight > 0 {
			out = append(out, m)
		}
	}
	return out
}

// normalizedColumn maps a raw metric column to preference scores. A
// degenerate column (every value equal) carries no ranking information and
// scores a flat neutral 0.5.
func normalizedColumn(values []float64, norm Normalizer, scorer Scorer) []float64 {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make([]float64, len(values))
	if min == max {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}

	for i, v := range values {
		var t float64
		switch norm {
		case NormMax:
			if max > 0 {
				t = v / max
			} else {
				t = 0.5
			}
		case NormMinMax:
			t = (v - min) / (max - min)
		}
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}

		switch scorer {
		case HigherBetter:
			out[i] = t
		case LowerBetter:
			out[i] = 1 - t
		case ModerateBetter:
			s := 1 - math.Abs(t-0.5)*2
			if s < 0 {
				s = 0
			}
			out[i] = s
		}
	}
	return out
}
