package positions

import (
	"math"

	"github.com/delatour/stratgen/models"
	"github.com/delatour/stratgen/payoff"
)

// Linear holds the signed per-leg sums that the cheap filters run on. They
// cost O(legs) to build, versus O(grid) for the payoff curve, so every
// candidate pays for them but only survivors pay for the curve.
type Linear struct {
	Premium    float64
	Delta      float64
	Gamma      float64
	Vega       float64
	Theta      float64
	AvgIV      float64
	AveragePnL float64
}

// Aggregate computes the signed linear sums for a leg set. Implied volatility
// is premium-weighted; equal weighting applies when all premiums are zero.
func Aggregate(legs []models.SignedLeg) Linear {
	var lin Linear
	var ivWeighted, premiumAbs float64
	for _, sl := range legs {
		s := float64(sl.Sign)
		q := sl.Leg.Qty()
		lin.Premium += s * sl.Leg.Premium * q * sl.Leg.Size()
		lin.Delta += s * sl.Leg.Delta * q
		lin.Gamma += s * sl.Leg.Gamma * q
		lin.Vega += s * sl.Leg.Vega * q
		lin.Theta += s * sl.Leg.Theta * q
		lin.AveragePnL += s * sl.Leg.AveragePnL

		w := math.Abs(sl.Leg.Premium) * q * sl.Leg.Size()
		ivWeighted += sl.Leg.ImpliedVolatility * w
		premiumAbs += w
	}
	if premiumAbs > 0 {
		lin.AvgIV = ivWeighted / premiumAbs
	} else {
		for _, sl := range legs {
			lin.AvgIV += sl.Leg.ImpliedVolatility
		}
		lin.AvgIV /= float64(len(legs))
	}
	return lin
}

// PreFilter runs every check that needs only the legs and their linear sums.
// It reports the first failing rule so rejected candidates never touch the
// payoff engine.
func PreFilter(legs []models.SignedLeg, lin Linear, f *models.FilterConfig) bool {
	if !models.SameExpiration(legs) {
		return false
	}
	if hasUselessSell(legs, f.MinPremiumSell) {
		return false
	}
	if hasOffsettingPair(legs) {
		return false
	}
	if openCount(legs, models.Put) > f.OpenLeft {
		return false
	}
	if openCount(legs, models.Call) > f.OpenRight {
		return false
	}
	if math.Abs(lin.Premium) > f.MaxPremium {
		return false
	}
	if lin.Delta < f.DeltaMin || lin.Delta > f.DeltaMax {
		return false
	}
	if math.Abs(lin.Gamma) > f.MaxGamma || math.Abs(lin.Vega) > f.MaxVega || math.Abs(lin.Theta) > f.MaxTheta {
		return false
	}
	// Signed sums of per-leg expectations equal the curve expectation, so
	// this bound is exact despite running before the curve exists.
	if lin.AveragePnL < f.MinAveragePnL {
		return false
	}
	return true
}

// PostFilter runs the curve-dependent checks: loss zoning outside the limit
// band and, optionally, the premium-only rule inside it.
func PostFilter(rec *models.StrategyRecord, prices []float64, f *models.FilterConfig) bool {
	if !math.IsInf(f.MaxLossLeft, 1) {
		if payoff.MinInRange(prices, rec.PnL, math.Inf(-1), f.LimitLeft) < -f.MaxLossLeft {
			return false
		}
	}
	if !math.IsInf(f.MaxLossRight, 1) {
		if payoff.MinInRange(prices, rec.PnL, f.LimitRight, math.Inf(1)) < -f.MaxLossRight {
			return false
		}
	}
	if f.PremiumOnlyCenter {
		if payoff.MinInRange(prices, rec.PnL, f.LimitLeft, f.LimitRight) < -math.Abs(rec.Premium) {
			return false
		}
	}
	return true
}

// hasUselessSell reports a short leg collecting less than the floor premium.
func hasUselessSell(legs []models.SignedLeg, minPremium float64) bool {
	if minPremium <= 0 {
		return false
	}
	for _, sl := range legs {
		if sl.Sign == models.Short && sl.Leg.Premium < minPremium {
			return true
		}
	}
	return false
}

// hasOffsettingPair reports a long and a short of the same contract in one
// candidate. The pair cancels exactly and only burns spread.
func hasOffsettingPair(legs []models.SignedLeg) bool {
	for i := 0; i < len(legs); i++ {
		for j := i + 1; j < len(legs); j++ {
			a, b := legs[i], legs[j]
			if a.Sign != b.Sign &&
				a.Leg.Type == b.Leg.Type &&
				a.Leg.Strike == b.Leg.Strike &&
				a.Leg.Expiration == b.Leg.Expiration {
				return true
			}
		}
	}
	return false
}

// openCount is the net short contract count for one option type, the number
// of contracts left uncovered on that side.
func openCount(legs []models.SignedLeg, t models.OptionType) int {
	n := 0.0
	for _, sl := range legs {
		if sl.Leg.Type != t {
			continue
		}
		n -= float64(sl.Sign) * sl.Leg.Qty()
	}
	if n <= 0 {
		return 0
	}
	return int(n)
}
