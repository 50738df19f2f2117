// Package payoff evaluates candidate strategies at expiration over the shared
// price grid. Per-leg long P&L surfaces are precomputed once per run; a
// candidate's curve is the signed sum of its legs' surfaces, and every
// grid-bound metric (extrema, breakevens, profit zone, mixture expectation)
// is derived from that curve.
package payoff

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/delatour/stratgen/models"
)

var (
	ErrNoLegs       = errors.New("payoff: strategy has no legs")
	ErrGridMismatch = errors.New("payoff: leg surface was built on a different price grid")
	ErrNoSurface    = errors.New("payoff: leg surface not precomputed")
)

// PrecomputeLeg fills the leg's stand-alone long P&L surface over the mixture
// grid and its mixture-weighted expectation and deviation. Short exposure is
// handled by the sign at aggregation time, so one surface per contract serves
// both directions.
func PrecomputeLeg(leg *models.OptionLeg, m *models.ScenarioMixture) {
	mult := leg.Qty() * leg.Size()
	pnl := make([]float64, len(m.Prices))
	for i, p := range m.Prices {
		pnl[i] = (leg.Intrinsic(p) - leg.Premium) * mult
	}
	leg.Prices = m.Prices
	leg.Mixture = m.Density
	leg.PnL = pnl
	leg.AveragePnL = expectation(m.Prices, m.Density, pnl)
	leg.SigmaPnL = deviation(m.Prices, m.Density, pnl, leg.AveragePnL)
}

// Evaluate computes every payoff-derived and mixture-weighted metric for the
// record's leg set and stores them on the record. Legs must have been
// precomputed against the same mixture grid.
func Evaluate(rec *models.StrategyRecord, m *models.ScenarioMixture, target float64) error {
	if len(rec.Legs) == 0 {
		return ErrNoLegs
	}
	n := len(m.Prices)
	total := make([]float64, n)
	for _, sl := range rec.Legs {
		if sl.Leg.PnL == nil {
			return fmt.Errorf("%w: %s %.2f", ErrNoSurface, sl.Leg.Type, sl.Leg.Strike)
		}
		if !m.SameGrid(sl.Leg.Prices) || len(sl.Leg.PnL) != n {
			return fmt.Errorf("%w: %s %.2f", ErrGridMismatch, sl.Leg.Type, sl.Leg.Strike)
		}
		floats.AddScaled(total, float64(sl.Sign), sl.Leg.PnL)
	}
	rec.PnL = total

	rec.MaxProfit = floats.Max(total)
	rec.MaxLoss = floats.Min(total)
	rec.MaxLossLeft, rec.MaxLossRight = sideMinima(m.Prices, total, m.Mean)

	rec.BreakevenPoints = Breakevens(m.Prices, total)
	lo, hi, width := profitZone(m.Prices, total)
	rec.ProfitRange = [2]float64{lo, hi}
	rec.ProfitZoneWidth = width

	rec.RiskReward = models.Real(riskReward(rec.MaxProfit, rec.MaxLoss))
	rec.SurfaceProfit, rec.SurfaceLoss = surfaces(m.Prices, total)

	rec.AveragePnL = expectation(m.Prices, m.Density, total)
	rec.SigmaPnL = deviation(m.Prices, m.Density, total, rec.AveragePnL)

	rec.ProfitAtTarget = ValueAt(m.Prices, total, target)
	if rec.Premium != 0 {
		rec.ProfitAtTgtPct = rec.ProfitAtTarget / math.Abs(rec.Premium) * 100
	}

	rec.OpenRiskLeft, rec.OpenRiskRight = OpenRisk(rec.Legs)
	return nil
}

// Breakevens returns the sorted underlying prices where the curve crosses
// zero: exact grid zeros plus linear interpolation inside each sign change.
func Breakevens(prices, pnl []float64) []float64 {
	var out []float64
	for i := 0; i < len(pnl); i++ {
		if pnl[i] == 0 {
			out = append(out, prices[i])
			continue
		}
		if i+1 < len(pnl) && pnl[i+1] != 0 && (pnl[i] < 0) != (pnl[i+1] < 0) {
			t := -pnl[i] / (pnl[i+1] - pnl[i])
			out = append(out, prices[i]+t*(prices[i+1]-prices[i]))
		}
	}
	return out
}

// ValueAt linearly interpolates the curve at an arbitrary price, clamping to
// the grid edges outside the sampled range.
func ValueAt(prices, pnl []float64, price float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	if price <= prices[0] {
		return pnl[0]
	}
	last := len(prices) - 1
	if price >= prices[last] {
		return pnl[last]
	}
	for i := 0; i < last; i++ {
		if price <= prices[i+1] {
			span := prices[i+1] - prices[i]
			if span == 0 {
				return pnl[i]
			}
			t := (price - prices[i]) / span
			return pnl[i] + t*(pnl[i+1]-pnl[i])
		}
	}
	return pnl[last]
}

// MinInRange returns the lowest curve value over grid points in [lo, hi].
// An empty intersection returns +Inf so callers can treat it as "no loss".
func MinInRange(prices, pnl []float64, lo, hi float64) float64 {
	min := math.Inf(1)
	for i, p := range prices {
		if p < lo || p > hi {
			continue
		}
		if pnl[i] < min {
			min = pnl[i]
		}
	}
	return min
}

// OpenRisk reports structurally unbounded loss beyond the grid on each side.
// Net short puts lose without bound as the underlying falls; net short calls
// as it rises. The grid caps the sampled MaxLoss, so these flags mark the
// candidates whose true worst case lies outside it.
func OpenRisk(legs []models.SignedLeg) (left, right bool) {
	var puts, calls float64
	for _, sl := range legs {
		q := float64(sl.Sign) * sl.Leg.Qty()
		if sl.Leg.IsCall() {
			calls += q
		} else {
			puts += q
		}
	}
	return puts < 0, calls < 0
}

// sideMinima splits the grid at the mixture mean and returns the worst curve
// value on each side.
func sideMinima(prices, pnl []float64, mean float64) (left, right float64) {
	left, right = math.Inf(1), math.Inf(1)
	for i, p := range prices {
		if p <= mean && pnl[i] < left {
			left = pnl[i]
		}
		if p >= mean && pnl[i] < right {
			right = pnl[i]
		}
	}
	if math.IsInf(left, 1) {
		left = floats.Min(pnl)
	}
	if math.IsInf(right, 1) {
		right = floats.Min(pnl)
	}
	return left, right
}

// profitZone returns the price bounds of the outermost profitable grid points
// and their width. A curve that never goes positive yields (0, 0) and 0.
func profitZone(prices, pnl []float64) (lo, hi, width float64) {
	first, last := -1, -1
	for i, v := range pnl {
		if v > 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0, 0, 0
	}
	return prices[first], prices[last], prices[last] - prices[first]
}

// riskReward is |max_profit / max_loss|. A curve that never loses has no
// meaningful ratio: +Inf when it can profit, 0 when it is flat or worse.
func riskReward(maxProfit, maxLoss float64) float64 {
	if maxLoss < 0 {
		return math.Abs(maxProfit / maxLoss)
	}
	if maxProfit > 0 {
		return math.Inf(1)
	}
	return 0
}

// surfaces integrates the positive and negative parts of the curve over the
// price axis, giving comparable areas of profit and loss exposure.
func surfaces(prices, pnl []float64) (profit, loss float64) {
	pos := make([]float64, len(pnl))
	neg := make([]float64, len(pnl))
	for i, v := range pnl {
		if v > 0 {
			pos[i] = v
		} else {
			neg[i] = -v
		}
	}
	return integrate.Trapezoidal(prices, pos), integrate.Trapezoidal(prices, neg)
}

// expectation is the mixture-weighted mean of the curve.
func expectation(prices, density, pnl []float64) float64 {
	weighted := make([]float64, len(pnl))
	for i := range pnl {
		weighted[i] = pnl[i] * density[i]
	}
	return integrate.Trapezoidal(prices, weighted)
}

// deviation is the mixture-weighted standard deviation of the curve around
// the given mean.
func deviation(prices, density, pnl []float64, mean float64) float64 {
	weighted := make([]float64, len(pnl))
	for i := range pnl {
		d := pnl[i] - mean
		weighted[i] = density[i] * d * d
	}
	v := integrate.Trapezoidal(prices, weighted)
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}
