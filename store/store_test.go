package store

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delatour/stratgen/models"
)

func sampleRecord() *models.StrategyRecord {
	leg := &models.OptionLeg{
		Type:       models.Call,
		Strike:     95,
		Premium:    5,
		Expiration: models.Expiration{MonthCode: "Z", Year: 6},
	}
	return &models.StrategyRecord{
		Name:       "Long Call 95.00",
		Legs:       []models.SignedLeg{{Leg: leg, Sign: models.Long}},
		Expiration: leg.Expiration,
		Premium:    5,
		MaxProfit:  45,
		MaxLoss:    -5,
		RiskReward: models.Real(math.Inf(1)),
		Score:      0.734,
		Rank:       1,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	doc := &Document{
		Metadata: Metadata{Underlying: "XYZ", Params: map[string]string{"max_legs": "2"}},
		Results:  []*models.StrategyRecord{sampleRecord()},
	}
	require.NoError(t, Save(path, doc))

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got.Results, 1)

	want := doc.Results[0]
	r := got.Results[0]
	assert.Equal(t, want.Name, r.Name)
	assert.Equal(t, want.Premium, r.Premium)
	assert.Equal(t, want.MaxProfit, r.MaxProfit)
	assert.Equal(t, want.MaxLoss, r.MaxLoss)
	assert.Equal(t, want.Score, r.Score)
	assert.Equal(t, want.Rank, r.Rank)
	assert.True(t, math.IsInf(r.RiskReward.Float(), 1))

	assert.Equal(t, "XYZ", got.Metadata.Underlying)
	assert.Equal(t, documentVersion, got.Metadata.Version)
	assert.False(t, got.Metadata.SavedAt.IsZero())
}

func TestSaveRejectsEmptyDocument(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "x.json"), &Document{})
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadValidatesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	bad := sampleRecord()
	bad.Legs = nil
	require.NoError(t, Save(path, &Document{Results: []*models.StrategyRecord{bad}}))

	_, err := Load(path)
	assert.ErrorContains(t, err, "no legs")
}
