package models

// StrategyRecord aggregates one accepted candidate with every metric the
// engine computes for it. Records are created by the generator, scored and
// ranked by the scoring package, and read-only afterwards.
type StrategyRecord struct {
	Name       string      `json:"strategy_name"`
	Legs       []SignedLeg `json:"all_options"`
	Expiration Expiration  `json:"expiration"`

	// Linear metrics: signed sums over legs.
	Premium              float64 `json:"premium"`
	TotalDelta           float64 `json:"total_delta"`
	TotalGamma           float64 `json:"total_gamma"`
	TotalVega            float64 `json:"total_vega"`
	TotalTheta           float64 `json:"total_theta"`
	AvgImpliedVolatility float64 `json:"avg_implied_volatility"`

	// Payoff-derived metrics, bounded by the sampled price grid.
	PnL             []float64  `json:"pnl_array"`
	MaxProfit       float64    `json:"max_profit"`
	MaxLoss         float64    `json:"max_loss"`
	MaxLossLeft     float64    `json:"max_loss_left"`
	MaxLossRight    float64    `json:"max_loss_right"`
	BreakevenPoints []float64  `json:"breakeven_points"`
	ProfitRange     [2]float64 `json:"profit_range"`
	ProfitZoneWidth float64    `json:"profit_zone_width"`
	RiskReward      Real       `json:"risk_reward_ratio"`
	SurfaceProfit   float64    `json:"surface_profit"`
	SurfaceLoss     float64    `json:"surface_loss"`

	// Structural flags: net uncovered short exposure beyond the outermost
	// long strike on each side. The grid bounds MaxLoss; these mark the
	// candidates whose theoretical loss keeps growing outside it.
	OpenRiskLeft  bool `json:"open_risk_left"`
	OpenRiskRight bool `json:"open_risk_right"`

	// Mixture-weighted metrics.
	AveragePnL     float64 `json:"average_pnl"`
	SigmaPnL       float64 `json:"sigma_pnl"`
	ProfitAtTarget float64 `json:"profit_at_target"`
	ProfitAtTgtPct float64 `json:"profit_at_target_pct"`

	// Assigned by the scoring package. Score is the weighted composite in
	// [0, 1] under one weight set; AverageRank is the candidate's mean
	// full-population rank across weight sets and only set on consensus
	// entries, whose ordering it defines.
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
	AverageRank float64 `json:"average_rank,omitempty"`
}

// NetPremium returns the signed premium sum for a leg set
// (positive = net debit, negative = net credit). Quoted premiums are
// per contract unit, so each leg scales by quantity and contract size,
// the same multiplier its payoff surface carries.
func NetPremium(legs []SignedLeg) float64 {
	total := 0.0
	for _, l := range legs {
		total += float64(l.Sign) * l.Leg.Premium * l.Leg.Qty() * l.Leg.Size()
	}
	return total
}

// MultiRankingResult holds the outcome of a multi-weight-set scoring run:
// one ranking per weight set plus a consensus ordering by average rank.
type MultiRankingResult struct {
	PerSet     [][]*StrategyRecord  `json:"per_set"`
	Consensus  []*StrategyRecord    `json:"consensus"`
	WeightSets []map[string]float64 `json:"weight_sets"`
	Candidates int                  `json:"n_candidates"`
}

// IsMulti reports whether more than one weight set was scored.
func (m *MultiRankingResult) IsMulti() bool { return len(m.WeightSets) > 1 }

// Flat returns the consensus ranking when multiple weight sets were used,
// otherwise the single per-set ranking.
func (m *MultiRankingResult) Flat() []*StrategyRecord {
	if m.IsMulti() {
		return m.Consensus
	}
	if len(m.PerSet) > 0 {
		return m.PerSet[0]
	}
	return nil
}
