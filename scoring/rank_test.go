package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delatour/stratgen/models"
)

func record(name string, avgPnL, delta, sigma float64) *models.StrategyRecord {
	return &models.StrategyRecord{
		Name:       name,
		Legs:       []models.SignedLeg{{Leg: &models.OptionLeg{Type: models.Call, Strike: 100}, Sign: models.Long}},
		AveragePnL: avgPnL,
		TotalDelta: delta,
		SigmaPnL:   sigma,
		PnL:        []float64{avgPnL, avgPnL + 1},
	}
}

func TestScoreAndRankOrdersByScore(t *testing.T) {
	records := []*models.StrategyRecord{
		record("worst", -5, 2.0, 9),
		record("best", 10, 0.0, 1),
		record("middle", 3, 0.5, 4),
	}
	ranked, err := ScoreAndRank(records, Options{})
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "best", ranked[0].Name)
	assert.Equal(t, "middle", ranked[1].Name)
	assert.Equal(t, "worst", ranked[2].Name)
	for i, r := range ranked {
		assert.Equal(t, i+1, r.Rank)
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
	assert.Greater(t, ranked[0].Score, ranked[2].Score)
}

func TestScoreAndRankIsDeterministic(t *testing.T) {
	build := func() []*models.StrategyRecord {
		var out []*models.StrategyRecord
		for i := 0; i < 20; i++ {
			out = append(out, record(fmt.Sprint(i), float64(i%7), float64(i%3), float64(i%5)))
		}
		return out
	}
	a, err := ScoreAndRank(build(), Options{})
	require.NoError(t, err)
	b, err := ScoreAndRank(build(), Options{})
	require.NoError(t, err)
	for i := range a {
		assert.Equal(t, a[i].Name, b[i].Name)
		assert.Equal(t, a[i].Score, b[i].Score)
	}
}

func TestDegenerateMetricScoresNeutral(t *testing.T) {
	// Every record has the same delta, so delta carries no information and
	// must contribute a flat 0.5, leaving scores equal under a
	// delta-only weight set.
	records := []*models.StrategyRecord{
		record("a", 1, 0.3, 1),
		record("b", 2, 0.3, 2),
		record("c", 3, 0.3, 3),
	}
	weights := map[string]float64{
		"average_pnl": 0, "gamma_low": 0, "vega_low": 0,
		"theta_positive": 0, "sigma_pnl": 0, "implied_vol_moderate": 0,
		"delta_neutral": 1,
	}
	ranked, err := ScoreAndRank(records, Options{Weights: weights})
	require.NoError(t, err)
	for _, r := range ranked {
		assert.Equal(t, 0.5, r.Score)
	}
}

func TestWeightRenormalizationIsScaleInvariant(t *testing.T) {
	records := func() []*models.StrategyRecord {
		return []*models.StrategyRecord{
			record("a", 1, 0.9, 5),
			record("b", 4, 0.1, 2),
			record("c", 2, 0.4, 8),
		}
	}
	weights := func(avg, delta float64) map[string]float64 {
		w := map[string]float64{}
		for _, name := range MetricNames() {
			w[name] = 0
		}
		w["average_pnl"] = avg
		w["delta_neutral"] = delta
		return w
	}
	small, err := ScoreAndRank(records(), Options{Weights: weights(0.2, 0.1)})
	require.NoError(t, err)
	big, err := ScoreAndRank(records(), Options{Weights: weights(2, 1)})
	require.NoError(t, err)
	for i := range small {
		assert.Equal(t, small[i].Name, big[i].Name)
		assert.InDelta(t, small[i].Score, big[i].Score, 1e-12)
	}
}

func TestAllWeightsDroppedIsAnError(t *testing.T) {
	weights := map[string]float64{}
	for _, name := range MetricNames() {
		weights[name] = 0
	}
	_, err := ScoreAndRank([]*models.StrategyRecord{record("a", 1, 1, 1)}, Options{Weights: weights})
	assert.ErrorIs(t, err, ErrNoMetrics)
}

func TestTopNTruncatesAfterSort(t *testing.T) {
	records := []*models.StrategyRecord{
		record("low", 1, 0, 0),
		record("high", 9, 0, 0),
		record("mid", 5, 0, 0),
	}
	ranked, err := ScoreAndRank(records, Options{TopN: 2})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "high", ranked[0].Name)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "mid", ranked[1].Name)
	assert.Equal(t, 2, ranked[1].Rank)
}

func TestDeduplicatePayoffs(t *testing.T) {
	a := record("a", 1, 0, 0)
	b := record("b", 1, 0, 0)
	c := record("c", 7, 0, 0)
	b.PnL = append([]float64(nil), a.PnL...)

	out := DeduplicatePayoffs([]*models.StrategyRecord{a, b, c})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Name)
	assert.Equal(t, "c", out[1].Name)
}

func TestMultiScoreConsensus(t *testing.T) {
	// Under pnl-only weights "a" wins; under sigma-only weights "b" wins.
	// "c" is worst under both, so the consensus must keep it last.
	a := record("a", 10, 0, 8)
	b := record("b", 5, 0, 1)
	c := record("c", 1, 0, 9)

	sets := []map[string]float64{
		{"average_pnl": 1, "delta_neutral": 0, "gamma_low": 0, "vega_low": 0, "theta_positive": 0, "sigma_pnl": 0, "implied_vol_moderate": 0},
		{"sigma_pnl": 1, "delta_neutral": 0, "gamma_low": 0, "vega_low": 0, "theta_positive": 0, "average_pnl": 0, "implied_vol_moderate": 0},
	}
	res, err := MultiScoreAndRank([]*models.StrategyRecord{a, b, c}, sets, Options{})
	require.NoError(t, err)
	require.True(t, res.IsMulti())
	require.Len(t, res.PerSet, 2)
	require.Len(t, res.Consensus, 3)

	assert.Equal(t, "a", res.PerSet[0][0].Name)
	assert.Equal(t, "b", res.PerSet[1][0].Name)
	assert.Equal(t, "c", res.Consensus[2].Name)
	assert.Equal(t, 3, res.Consensus[2].Rank)
	// Tied average ranks keep input order.
	assert.Equal(t, "a", res.Consensus[0].Name)
	assert.Equal(t, "b", res.Consensus[1].Name)
}

func TestMultiScoreKeepsCompositeScores(t *testing.T) {
	// The default single-set run must hand back the weighted [0, 1]
	// composite, not rank numbers recycled as scores.
	records := []*models.StrategyRecord{
		record("a", 10, 0, 1),
		record("b", 5, 0, 2),
		record("c", 1, 0, 3),
	}
	res, err := MultiScoreAndRank(records, nil, Options{})
	require.NoError(t, err)
	require.False(t, res.IsMulti())

	flat := res.Flat()
	require.Len(t, flat, 3)
	want, err := ScoreAndRank([]*models.StrategyRecord{
		record("a", 10, 0, 1),
		record("b", 5, 0, 2),
		record("c", 1, 0, 3),
	}, Options{})
	require.NoError(t, err)
	for i := range flat {
		assert.Equal(t, want[i].Name, flat[i].Name)
		assert.InDelta(t, want[i].Score, flat[i].Score, 1e-12)
		assert.Equal(t, i+1, flat[i].Rank)
		assert.NotEqual(t, float64(flat[i].Rank), flat[i].Score)
	}
}

func TestMultiScorePerSetScoresSurviveConsensus(t *testing.T) {
	a := record("a", 10, 0, 8)
	b := record("b", 5, 0, 1)
	c := record("c", 1, 0, 9)

	sets := []map[string]float64{
		{"average_pnl": 1, "delta_neutral": 0, "gamma_low": 0, "vega_low": 0, "theta_positive": 0, "sigma_pnl": 0, "implied_vol_moderate": 0},
		{"sigma_pnl": 1, "delta_neutral": 0, "gamma_low": 0, "vega_low": 0, "theta_positive": 0, "average_pnl": 0, "implied_vol_moderate": 0},
	}
	res, err := MultiScoreAndRank([]*models.StrategyRecord{a, b, c}, sets, Options{})
	require.NoError(t, err)

	// Set 0 is pnl-only, where "a" normalizes to the full 1.0 composite.
	require.Equal(t, "a", res.PerSet[0][0].Name)
	assert.InDelta(t, 1.0, res.PerSet[0][0].Score, 1e-12)
	assert.Equal(t, 1, res.PerSet[0][0].Rank)

	// Consensus ordering comes from the average rank, kept off the score.
	require.Equal(t, "a", res.Consensus[0].Name)
	assert.InDelta(t, 1.5, res.Consensus[0].AverageRank, 1e-12)
	assert.LessOrEqual(t, res.Consensus[0].Score, 1.0)
	assert.GreaterOrEqual(t, res.Consensus[0].Score, 0.0)
}

func TestMultiScoreEmptyPopulation(t *testing.T) {
	res, err := MultiScoreAndRank(nil, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Consensus)
	assert.False(t, res.IsMulti())
	assert.Nil(t, res.Flat())
}
