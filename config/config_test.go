package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stratgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
underlying: XYZ
output: /tmp/out.json
generation:
  max_legs: 4
  price_min: 60
  price_max: 140
  num_points: 256
  include_long: true
  include_short: true
  scenarios:
    - price: 95
      std: 4
      weight: 1
    - price: 110
      std: 8
      weight: 2
  filters:
    max_premium: 5.5
    delta_min: -0.2
    delta_max: 0.2
scoring:
  top_n: 10
  dedup: true
weight_sets:
  - average_pnl: 1.0
  - sigma_pnl: 1.0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "XYZ", cfg.Underlying)
	assert.Equal(t, "/tmp/out.json", cfg.Output)
	assert.Equal(t, 4, cfg.Generation.MaxLegs)
	assert.Equal(t, 60.0, cfg.Generation.PriceMin)
	assert.Equal(t, 256, cfg.Generation.NumPoints)
	require.Len(t, cfg.Generation.Scenarios, 2)
	assert.Equal(t, 95.0, cfg.Generation.Scenarios[0].Center)
	assert.Equal(t, 4.0, cfg.Generation.Scenarios[0].Sigma)

	assert.Equal(t, 5.5, cfg.Generation.Filters.MaxPremium)
	assert.Equal(t, -0.2, cfg.Generation.Filters.DeltaMin)
	assert.Equal(t, 10, cfg.Scoring.TopN)
	require.Len(t, cfg.WeightSets, 2)
	assert.Equal(t, 1.0, cfg.WeightSets[0]["average_pnl"])
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "SIM", cfg.Underlying)
	assert.Equal(t, 2, cfg.Generation.MaxLegs)
	assert.Equal(t, 512, cfg.Generation.NumPoints)
	assert.True(t, cfg.Generation.IncludeLong)
	assert.True(t, cfg.Generation.IncludeShort)
	assert.Equal(t, 50, cfg.Scoring.TopN)

	// No filter section means permissive bounds.
	assert.True(t, math.IsInf(cfg.Generation.Filters.MaxPremium, 1))
	assert.True(t, math.IsInf(cfg.Generation.Filters.DeltaMin, -1))
}

func TestLoadPartialFilterSectionKeepsPermissiveBounds(t *testing.T) {
	// Naming one bound must not zero out the rest of the filter section.
	path := writeConfig(t, `
generation:
  filters:
    max_premium: 5.0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	f := cfg.Generation.Filters
	assert.Equal(t, 5.0, f.MaxPremium)
	assert.True(t, math.IsInf(f.DeltaMin, -1))
	assert.True(t, math.IsInf(f.DeltaMax, 1))
	assert.True(t, math.IsInf(f.MaxGamma, 1))
	assert.True(t, math.IsInf(f.MinAveragePnL, -1))
	assert.Equal(t, math.MaxInt32, f.OpenLeft)
	assert.Equal(t, math.MaxInt32, f.OpenRight)

	path = writeConfig(t, `
generation:
  filters:
    min_premium_sell: 1.25
`)
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.25, cfg.Generation.Filters.MinPremiumSell)
	assert.True(t, math.IsInf(cfg.Generation.Filters.MaxPremium, 1))
}

func TestLoadMissingExplicitFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
