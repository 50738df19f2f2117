package chains

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/delatour/stratgen/models"
)

// SimConfig describes a synthetic chain: one expiry, a strike ladder around
// the underlying, and a flat volatility surface.
type SimConfig struct {
	UnderlyingPrice float64           `json:"underlying_price" mapstructure:"underlying_price"`
	RiskFreeRate    float64           `json:"risk_free_rate" mapstructure:"risk_free_rate"`
	Volatility      float64           `json:"volatility" mapstructure:"volatility"`
	TimeToExpiry    float64           `json:"time_to_expiry" mapstructure:"time_to_expiry"`
	Expiration      models.Expiration `json:"expiration" mapstructure:"expiration"`
	StrikeMin       float64           `json:"strike_min" mapstructure:"strike_min"`
	StrikeMax       float64           `json:"strike_max" mapstructure:"strike_max"`
	StrikeStep      float64           `json:"strike_step" mapstructure:"strike_step"`
}

// Simulate prices a call and a put per strike under Black-Scholes and returns
// them as engine-ready legs. It stands in for a live feed in offline runs.
func Simulate(cfg SimConfig) ([]*models.OptionLeg, error) {
	if cfg.UnderlyingPrice <= 0 {
		return nil, fmt.Errorf("chains: non-positive underlying price %g", cfg.UnderlyingPrice)
	}
	if cfg.StrikeMin <= 0 || cfg.StrikeMax < cfg.StrikeMin || cfg.StrikeStep <= 0 {
		return nil, fmt.Errorf("chains: bad strike ladder [%g, %g] step %g",
			cfg.StrikeMin, cfg.StrikeMax, cfg.StrikeStep)
	}
	if cfg.TimeToExpiry <= 0 {
		return nil, fmt.Errorf("chains: non-positive time to expiry %g", cfg.TimeToExpiry)
	}
	if !cfg.Expiration.Valid() {
		return nil, fmt.Errorf("chains: unknown expiration month code %q", cfg.Expiration.MonthCode)
	}
	vol := cfg.Volatility
	if vol <= 0 {
		vol = DefaultImpliedVol
	}

	var legs []*models.OptionLeg
	for strike := cfg.StrikeMin; strike <= cfg.StrikeMax+cfg.StrikeStep/2; strike += cfg.StrikeStep {
		for _, t := range []models.OptionType{models.Call, models.Put} {
			g := bsm(cfg.UnderlyingPrice, strike, cfg.TimeToExpiry, cfg.RiskFreeRate, vol, t == models.Call)
			legs = append(legs, &models.OptionLeg{
				Type:              t,
				Strike:            strike,
				Premium:           g.price,
				Expiration:        cfg.Expiration,
				Mid:               g.price,
				Delta:             g.delta,
				Gamma:             g.gamma,
				Vega:              g.vega,
				Theta:             g.theta,
				Rho:               g.rho,
				ImpliedVolatility: vol,
			})
		}
	}
	return legs, nil
}

type greeks struct {
	price, delta, gamma, vega, theta, rho float64
}

// bsm prices one European option and its greeks. Theta is per year; vega and
// rho are per unit of volatility and rate.
func bsm(S, K, T, r, sigma float64, isCall bool) greeks {
	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	discount := math.Exp(-r * T)

	norm := distuv.UnitNormal
	var g greeks
	if isCall {
		g.delta = norm.CDF(d1)
		g.price = S*norm.CDF(d1) - K*discount*norm.CDF(d2)
		g.theta = -(S*norm.Prob(d1)*sigma)/(2*sqrtT) - r*K*discount*norm.CDF(d2)
		g.rho = K * T * discount * norm.CDF(d2)
	} else {
		g.delta = norm.CDF(d1) - 1
		g.price = K*discount*norm.CDF(-d2) - S*norm.CDF(-d1)
		g.theta = -(S*norm.Prob(d1)*sigma)/(2*sqrtT) + r*K*discount*norm.CDF(-d2)
		g.rho = -K * T * discount * norm.CDF(-d2)
	}
	g.gamma = norm.Prob(d1) / (S * sigma * sqrtT)
	g.vega = S * norm.Prob(d1) * sqrtT
	return g
}
