package models

import "math"

// FilterConfig bounds the candidate space before payoff curves are computed.
// Zero-valued bounds produced by DefaultFilters are permissive; callers
// tighten the ones they care about.
type FilterConfig struct {
	// Net premium magnitude cap: |Σ sign·premium| <= MaxPremium.
	MaxPremium float64 `json:"max_premium" mapstructure:"max_premium"`

	// Minimum premium to accept on any short leg; rejects selling for
	// pennies, which adds open risk without compensating credit.
	MinPremiumSell float64 `json:"min_premium_sell" mapstructure:"min_premium_sell"`

	// Net short-minus-long leg count caps per side: puts (left of the
	// target) and calls (right of it).
	OpenLeft  int `json:"ouvert_gauche" mapstructure:"ouvert_gauche"`
	OpenRight int `json:"ouvert_droite" mapstructure:"ouvert_droite"`

	// Aggregate delta window.
	DeltaMin float64 `json:"delta_min" mapstructure:"delta_min"`
	DeltaMax float64 `json:"delta_max" mapstructure:"delta_max"`

	// Sanity caps on aggregate Greek magnitudes.
	MaxGamma float64 `json:"max_gamma" mapstructure:"max_gamma"`
	MaxVega  float64 `json:"max_vega" mapstructure:"max_vega"`
	MaxTheta float64 `json:"max_theta" mapstructure:"max_theta"`

	// Loss tolerance outside [LimitLeft, LimitRight]: the curve may not dip
	// below -MaxLossLeft left of LimitLeft nor below -MaxLossRight right of
	// LimitRight.
	MaxLossLeft  float64 `json:"max_loss_left" mapstructure:"max_loss_left"`
	MaxLossRight float64 `json:"max_loss_right" mapstructure:"max_loss_right"`
	LimitLeft    float64 `json:"limit_left" mapstructure:"limit_left"`
	LimitRight   float64 `json:"limit_right" mapstructure:"limit_right"`

	// When set, the loss inside [LimitLeft, LimitRight] may not exceed the
	// net premium paid.
	PremiumOnlyCenter bool `json:"premium_only_center" mapstructure:"premium_only_center"`

	// Minimum mixture-weighted expected P&L (signed per-leg sum).
	MinAveragePnL float64 `json:"min_average_pnl" mapstructure:"min_average_pnl"`

	// Optional structural whitelist of strategy families ("BullCallSpread",
	// "IronCondor", ...). Empty means all shapes pass.
	Strategies []string `json:"strategies_include" mapstructure:"strategies_include"`
}

// DefaultFilters returns a configuration that accepts everything.
func DefaultFilters() FilterConfig {
	return FilterConfig{
		MaxPremium:     math.Inf(1),
		MinPremiumSell: 0,
		OpenLeft:       math.MaxInt32,
		OpenRight:      math.MaxInt32,
		DeltaMin:       math.Inf(-1),
		DeltaMax:       math.Inf(1),
		MaxGamma:       math.Inf(1),
		MaxVega:        math.Inf(1),
		MaxTheta:       math.Inf(1),
		MaxLossLeft:    math.Inf(1),
		MaxLossRight:   math.Inf(1),
		LimitLeft:      math.Inf(-1),
		LimitRight:     math.Inf(1),
		MinAveragePnL:  math.Inf(-1),
	}
}

// AllowsStrategy reports whether a strategy family passes the whitelist.
// Matching is on the family name, not the strike-decorated display name.
func (f *FilterConfig) AllowsStrategy(family string) bool {
	if len(f.Strategies) == 0 {
		return true
	}
	for _, s := range f.Strategies {
		if s == family {
			return true
		}
	}
	return false
}
