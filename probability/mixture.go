// Package probability builds the scenario-driven probability density the
// payoff engine weights its metrics with. User scenarios (price target,
// uncertainty, weight) become Gaussian components over a shared price grid;
// the summed mixture is normalized by trapezoidal integration.
package probability

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/delatour/stratgen/models"
)

var (
	ErrInvalidRange   = errors.New("probability: price_min must be below price_max")
	ErrTooFewPoints   = errors.New("probability: grid needs at least 2 points")
	ErrInvalidSigma   = errors.New("probability: scenario sigma must be positive")
	ErrNegativeWeight = errors.New("probability: scenario weight must not be negative")
)

// BuildMixture discretizes the weighted scenario mixture over
// [priceMin, priceMax] with numPoints samples. With no scenarios the density
// is flat uniform; with all-zero weights the scenarios are weighted equally.
// The returned density integrates to 1 under the trapezoidal rule.
func BuildMixture(scenarios []models.Scenario, priceMin, priceMax float64, numPoints int, asymmetric bool) (*models.ScenarioMixture, error) {
	if priceMin >= priceMax {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, priceMin, priceMax)
	}
	if numPoints < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, numPoints)
	}

	prices := floats.Span(make([]float64, numPoints), priceMin, priceMax)
	density := make([]float64, numPoints)

	if len(scenarios) == 0 {
		for i := range density {
			density[i] = 1
		}
		return normalize(prices, density)
	}

	weights := make([]float64, len(scenarios))
	total := 0.0
	for i, sc := range scenarios {
		if sc.Weight < 0 {
			return nil, fmt.Errorf("%w: scenario %d has weight %g", ErrNegativeWeight, i, sc.Weight)
		}
		weights[i] = sc.Weight
		total += sc.Weight
	}
	if total == 0 {
		// All-zero weights fall back to equal weighting.
		for i := range weights {
			weights[i] = 1
		}
		total = float64(len(weights))
	}

	for i, sc := range scenarios {
		sigmaL := sc.Sigma
		sigmaR := sc.SigmaRight
		if sigmaR == 0 {
			sigmaR = sigmaL
		}
		if sigmaL <= 0 || sigmaR <= 0 {
			return nil, fmt.Errorf("%w: scenario %d has sigma (%g, %g)", ErrInvalidSigma, i, sigmaL, sigmaR)
		}

		w := weights[i] / total
		if asymmetric {
			addTwoPieceGaussian(density, prices, w, sc.Center, sigmaL, sigmaR)
		} else {
			addGaussian(density, prices, w, sc.Center, sigmaL)
		}
	}

	return normalize(prices, density)
}

// addGaussian accumulates w·N(mu, sigma) over the grid.
func addGaussian(density, prices []float64, w, mu, sigma float64) {
	n := distuv.Normal{Mu: mu, Sigma: sigma}
	for i, p := range prices {
		density[i] += w * n.Prob(p)
	}
}

// addTwoPieceGaussian accumulates a two-sided Gaussian with different
// deviations left and right of the center, continuous at the join.
func addTwoPieceGaussian(density, prices []float64, w, mu, sigmaL, sigmaR float64) {
	left := distuv.Normal{Mu: mu, Sigma: sigmaL}
	right := distuv.Normal{Mu: mu, Sigma: sigmaR}
	// Side scaling keeps the combined density a unit-mass distribution.
	scaleL := 2 * sigmaL / (sigmaL + sigmaR)
	scaleR := 2 * sigmaR / (sigmaL + sigmaR)
	for i, p := range prices {
		if p < mu {
			density[i] += w * scaleL * left.Prob(p)
		} else {
			density[i] += w * scaleR * right.Prob(p)
		}
	}
}

func normalize(prices, density []float64) (*models.ScenarioMixture, error) {
	mass := integrate.Trapezoidal(prices, density)
	if mass <= 0 {
		// Scenarios centered far outside the grid leave no usable mass;
		// fall back to uniform rather than dividing by zero.
		for i := range density {
			density[i] = 1
		}
		mass = integrate.Trapezoidal(prices, density)
	}
	for i := range density {
		density[i] /= mass
	}

	weighted := make([]float64, len(prices))
	for i := range prices {
		weighted[i] = prices[i] * density[i]
	}
	mean := integrate.Trapezoidal(prices, weighted)

	return &models.ScenarioMixture{Prices: prices, Density: density, Mean: mean}, nil
}
