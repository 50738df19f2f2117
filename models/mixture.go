package models

// Scenario is one user-specified market view: a price target with left/right
// uncertainty and a relative weight. SigmaRight is ignored unless the mixture
// is built in asymmetric mode; zero means "same as Sigma".
type Scenario struct {
	Center     float64 `json:"price" mapstructure:"price"`
	Sigma      float64 `json:"std" mapstructure:"std"`
	SigmaRight float64 `json:"std_r" mapstructure:"std_r"`
	Weight     float64 `json:"weight" mapstructure:"weight"`
}

// ScenarioMixture is a discretized probability density over a price grid,
// normalized so that its trapezoidal integral is 1. Prices and Density are
// shared read-only by every candidate evaluated against them.
type ScenarioMixture struct {
	Prices  []float64 `json:"prices"`
	Density []float64 `json:"density"`
	Mean    float64   `json:"mean"`
}

// SameGrid reports whether the mixture was built over the given grid.
// Candidates assembled against a different grid must be rejected, not mixed.
func (m *ScenarioMixture) SameGrid(prices []float64) bool {
	if len(m.Prices) != len(prices) {
		return false
	}
	if len(prices) == 0 {
		return true
	}
	// Shared-slice fast path: one generation run hands the same backing
	// array to every leg.
	if &m.Prices[0] == &prices[0] {
		return true
	}
	for i := range prices {
		if m.Prices[i] != prices[i] {
			return false
		}
	}
	return true
}
