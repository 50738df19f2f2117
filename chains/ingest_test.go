package chains

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delatour/stratgen/models"
)

func TestParseDefaultsMissingFields(t *testing.T) {
	data := []byte(`{
		"underlying": "XYZ",
		"options": [
			{"option_type": "call", "strike": 100, "bid": 2.0, "ask": 3.0,
			 "expiration": {"month_code": "Z", "year": 6}},
			{"option_type": "put", "strike": 95, "last": 1.4,
			 "expiration": {"month_code": "Z", "year": 6}, "implied_volatility": 0.32}
		]
	}`)
	doc, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "XYZ", doc.Underlying)
	require.Len(t, doc.Options, 2)

	call := doc.Options[0]
	assert.Equal(t, 2.5, call.Premium)
	assert.Equal(t, 2.5, call.Mid)
	assert.Equal(t, DefaultImpliedVol, call.ImpliedVolatility)

	put := doc.Options[1]
	assert.Equal(t, 1.4, put.Premium)
	assert.Equal(t, 0.32, put.ImpliedVolatility)
}

func TestParseRejectsBadLegs(t *testing.T) {
	_, err := Parse([]byte(`{"options": []}`))
	assert.ErrorIs(t, err, ErrEmptyChain)

	_, err = Parse([]byte(`{"options": [{"option_type": "call", "strike": 100,
		"expiration": {"month_code": "A", "year": 6}}]}`))
	assert.ErrorContains(t, err, "month code")

	_, err = Parse([]byte(`{"options": [{"option_type": "swap", "strike": 100,
		"expiration": {"month_code": "Z", "year": 6}}]}`))
	assert.ErrorContains(t, err, "option type")

	_, err = Parse([]byte(`{"options": [{"option_type": "put", "strike": 0,
		"expiration": {"month_code": "Z", "year": 6}}]}`))
	assert.ErrorContains(t, err, "strike")
}

func TestParseHistory(t *testing.T) {
	bars, err := ParseHistory([]byte(`[{"open":100,"high":102,"low":99,"close":101}]`))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 101.0, bars[0].Close)
}

func TestSimulateProducesLadder(t *testing.T) {
	cfg := SimConfig{
		UnderlyingPrice: 100,
		RiskFreeRate:    0.02,
		Volatility:      0.25,
		TimeToExpiry:    0.25,
		Expiration:      models.Expiration{MonthCode: "H", Year: 6},
		StrikeMin:       80,
		StrikeMax:       120,
		StrikeStep:      5,
	}
	legs, err := Simulate(cfg)
	require.NoError(t, err)
	// 9 strikes, call and put each.
	require.Len(t, legs, 18)

	for i := 0; i < len(legs); i += 2 {
		call, put := legs[i], legs[i+1]
		require.Equal(t, models.Call, call.Type)
		require.Equal(t, models.Put, put.Type)
		require.Equal(t, call.Strike, put.Strike)

		assert.Greater(t, call.Premium, 0.0)
		assert.Greater(t, put.Premium, 0.0)
		// Put-call parity within float tolerance.
		parity := call.Premium - put.Premium
		forward := 100.0 - call.Strike*math.Exp(-0.02*0.25)
		assert.InDelta(t, forward, parity, 1e-9)

		assert.Greater(t, call.Delta, 0.0)
		assert.Less(t, put.Delta, 0.0)
		assert.InDelta(t, call.Gamma, put.Gamma, 1e-12)
		assert.Equal(t, 0.25, call.ImpliedVolatility)
	}
}

func TestSimulateRejectsBadConfig(t *testing.T) {
	good := SimConfig{
		UnderlyingPrice: 100, TimeToExpiry: 0.25,
		Expiration: models.Expiration{MonthCode: "H", Year: 6},
		StrikeMin:  80, StrikeMax: 120, StrikeStep: 5,
	}

	bad := good
	bad.UnderlyingPrice = 0
	_, err := Simulate(bad)
	assert.Error(t, err)

	bad = good
	bad.StrikeMin, bad.StrikeMax = 120, 80
	_, err = Simulate(bad)
	assert.Error(t, err)

	bad = good
	bad.TimeToExpiry = 0
	_, err = Simulate(bad)
	assert.Error(t, err)

	bad = good
	bad.Expiration.MonthCode = "A"
	_, err = Simulate(bad)
	assert.Error(t, err)
}
