package probability

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// tradingDays is the annualization base for daily bars.
const tradingDays = 252

// Bar is one daily OHLC sample of the underlying.
type Bar struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// GarmanKlass estimates annualized volatility from OHLC bars. It uses the
// full high/low/open/close information, so it converges faster than a
// close-to-close estimate on short windows.
func GarmanKlass(bars []Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		if b.High <= 0 || b.Low <= 0 || b.Open <= 0 || b.Close <= 0 {
			return 0
		}
		hl := math.Log(b.High / b.Low)
		co := math.Log(b.Close / b.Open)
		sum += 0.5*hl*hl - (2*math.Ln2-1)*co*co
	}
	v := sum / float64(len(bars))
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v * tradingDays)
}

// Parkinson estimates annualized volatility from the high/low range only.
func Parkinson(bars []Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		if b.High <= 0 || b.Low <= 0 {
			return 0
		}
		lr := math.Log(b.High / b.Low)
		sum += lr * lr
	}
	return math.Sqrt(sum/(4*float64(len(bars))*math.Ln2)) * math.Sqrt(tradingDays)
}

// CloseToClose is the annualized sample deviation of daily log returns.
func CloseToClose(bars []Bar) float64 {
	if len(bars) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		if bars[i].Close <= 0 || bars[i-1].Close <= 0 {
			return 0
		}
		returns = append(returns, math.Log(bars[i].Close/bars[i-1].Close))
	}
	return math.Sqrt(stat.Variance(returns, nil)) * math.Sqrt(tradingDays)
}

// SuggestSigma converts an estimated annualized volatility into a price
// deviation over the given horizon, for scenarios that leave sigma blank.
// Garman-Klass leads; Parkinson and close-to-close fill in when the richer
// estimate degenerates.
func SuggestSigma(bars []Bar, price, horizonYears float64) float64 {
	if price <= 0 || horizonYears <= 0 {
		return 0
	}
	vol := GarmanKlass(bars)
	if vol == 0 {
		vol = Parkinson(bars)
	}
	if vol == 0 {
		vol = CloseToClose(bars)
	}
	return price * vol * math.Sqrt(horizonYears)
}
