package probability

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/delatour/stratgen/models"
)

// Sample draws n prices from the scenario mixture, for Monte Carlo
// cross-checks of the grid-based metrics. Scenarios are picked by weight,
// then a price is drawn from the picked component. Zero-weight sets fall
// back to equal weighting, matching BuildMixture.
func Sample(scenarios []models.Scenario, n int, seed uint64) []float64 {
	if len(scenarios) == 0 || n <= 0 {
		return nil
	}
	src := rand.NewSource(seed)
	rng := rand.New(src)

	weights := make([]float64, len(scenarios))
	total := 0.0
	for i, sc := range scenarios {
		weights[i] = sc.Weight
		total += sc.Weight
	}
	if total == 0 {
		for i := range weights {
			weights[i] = 1
		}
		total = float64(len(weights))
	}

	components := make([]distuv.Normal, len(scenarios))
	for i, sc := range scenarios {
		components[i] = distuv.Normal{Mu: sc.Center, Sigma: sc.Sigma, Src: src}
	}

	out := make([]float64, n)
	for i := range out {
		u := rng.Float64() * total
		k := 0
		for ; k < len(weights)-1; k++ {
			u -= weights[k]
			if u < 0 {
				break
			}
		}
		out[i] = components[k].Rand()
	}
	return out
}
