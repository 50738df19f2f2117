package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/delatour/stratgen/models"
)

var ErrNoMetrics = errors.New("scoring: no metric has positive weight")

// Options tunes one scoring run.
type Options struct {
	// Weights overrides default metric weights by name; omitted metrics
	// keep their defaults, non-positive weights drop the metric.
	Weights map[string]float64 `json:"weights" mapstructure:"weights"`
	// TopN truncates the ranked output after sorting; <= 0 keeps all.
	TopN int `json:"top_n" mapstructure:"top_n"`
	// Dedup drops candidates whose payoff curve duplicates an earlier one.
	Dedup bool `json:"dedup" mapstructure:"dedup"`
}

// ScoreAndRank scores every record under one weight set and returns them
// sorted by descending score. Sorting is stable, truncation happens after the
// sort, and ranks are 1-based over the truncated list.
func ScoreAndRank(records []*models.StrategyRecord, opts Options) ([]*models.StrategyRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if opts.Dedup {
		records = DeduplicatePayoffs(records)
	}

	if err := scoreInto(records, opts.Weights); err != nil {
		return nil, err
	}

	ranked := sortedByScore(records)
	ranked = truncate(ranked, opts.TopN)
	for i, r := range ranked {
		r.Rank = i + 1
	}
	return ranked, nil
}

// MultiScoreAndRank scores the population once per weight set and builds a
// consensus ordering by average rank across sets. Per-set ranks are assigned
// over the full population so the consensus is not biased by truncation;
// TopN applies to each returned list after its sort.
func MultiScoreAndRank(records []*models.StrategyRecord, weightSets []map[string]float64, opts Options) (*models.MultiRankingResult, error) {
	if len(weightSets) == 0 {
		weightSets = []map[string]float64{opts.Weights}
	}
	if opts.Dedup {
		records = DeduplicatePayoffs(records)
	}
	if len(records) == 0 {
		return &models.MultiRankingResult{WeightSets: weightSets}, nil
	}

	res := &models.MultiRankingResult{
		WeightSets: weightSets,
		Candidates: len(records),
	}

	// Average of full-population ranks per record, across weight sets.
	// Per-set and consensus entries are value copies so each keeps its own
	// set's composite score and rank; the shared records are never
	// clobbered with consensus data.
	rankSum := make(map[*models.StrategyRecord]float64, len(records))
	for _, weights := range weightSets {
		if err := scoreInto(records, weights); err != nil {
			return nil, err
		}
		ranked := sortedByScore(records)
		for i, r := range ranked {
			rankSum[r] += float64(i + 1)
		}
		ranked = truncate(ranked, opts.TopN)
		perSet := make([]*models.StrategyRecord, len(ranked))
		for i, r := range ranked {
			cp := *r
			cp.Rank = i + 1
			perSet[i] = &cp
		}
		res.PerSet = append(res.PerSet, perSet)
	}

	ordered := make([]*models.StrategyRecord, len(records))
	copy(ordered, records)
	sets := float64(len(weightSets))
	sort.SliceStable(ordered, func(i, j int) bool {
		return rankSum[ordered[i]] < rankSum[ordered[j]]
	})
	ordered = truncate(ordered, opts.TopN)
	consensus := make([]*models.StrategyRecord, len(ordered))
	for i, r := range ordered {
		cp := *r
		cp.AverageRank = rankSum[r] / sets
		cp.Rank = i + 1
		consensus[i] = &cp
	}
	res.Consensus = consensus

	log.Debug().Int("candidates", len(records)).Int("weight_sets", len(weightSets)).
		Msg("consensus ranking built")
	return res, nil
}

// scoreInto computes the composite score for every record under one weight
// set and writes it to record.Score.
func scoreInto(records []*models.StrategyRecord, weights map[string]float64) error {
	metrics := withWeights(DefaultMetrics(), weights)
	if len(metrics) == 0 {
		return ErrNoMetrics
	}

	totalWeight := 0.0
	for _, m := range metrics {
		totalWeight += m.Weight
	}

	n, k := len(records), len(metrics)
	scores := mat.NewDense(n, k, nil)
	w := mat.NewVecDense(k, nil)

	column := make([]float64, n)
	for j, m := range metrics {
		for i, r := range records {
			column[i] = models.SanitizeFloat(m.Extract(r))
		}
		scored := normalizedColumn(column, m.Normalize, m.Score)
		for i := range scored {
			scores.Set(i, j, scored[i])
		}
		w.SetVec(j, m.Weight/totalWeight)
	}

	var composite mat.VecDense
	composite.MulVec(scores, w)
	for i, r := range records {
		r.Score = composite.AtVec(i)
	}
	return nil
}

// DeduplicatePayoffs keeps the first record of every distinct payoff curve.
// Curves are compared after rounding so that float noise from different leg
// orderings does not split economically identical candidates.
func DeduplicatePayoffs(records []*models.StrategyRecord) []*models.StrategyRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0:0]
	for _, r := range records {
		key := curveKey(r.PnL)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	if len(out) < len(records) {
		log.Debug().Int("dropped", len(records)-len(out)).Msg("duplicate payoff curves removed")
	}
	return out
}

func curveKey(pnl []float64) string {
	var b strings.Builder
	b.Grow(len(pnl) * 12)
	for _, v := range pnl {
		fmt.Fprintf(&b, "%.6f|", v)
	}
	return b.String()
}

func sortedByScore(records []*models.StrategyRecord) []*models.StrategyRecord {
	out := make([]*models.StrategyRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func truncate(records []*models.StrategyRecord, topN int) []*models.StrategyRecord {
	if topN > 0 && len(records) > topN {
		return records[:topN]
	}
	return records
}
