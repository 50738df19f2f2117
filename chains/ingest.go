// Package chains turns external option chain data into engine-ready legs.
// It ingests JSON chain documents with permissive defaulting, and can
// synthesize a full chain offline from a Black-Scholes surface when no feed
// is available.
package chains

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/xhhuango/json"

	"github.com/delatour/stratgen/models"
	"github.com/delatour/stratgen/probability"
)

// DefaultImpliedVol fills in for quotes that arrive without an implied
// volatility; a flat 15% keeps the moderateness metric usable.
const DefaultImpliedVol = 0.15

var ErrEmptyChain = errors.New("chains: document contains no options")

// Document is the on-disk chain format: the underlying symbol plus its legs,
// keyed the same way the engine serializes them.
type Document struct {
	Underlying string              `json:"underlying"`
	UpdatedAt  string              `json:"updated_at,omitempty"`
	Options    []*models.OptionLeg `json:"options"`
}

// Parse decodes a chain document and normalizes every leg. Legs with an
// unknown expiration month code are rejected; missing numerics are defaulted,
// not errors.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("chains: decode: %w", err)
	}
	if len(doc.Options) == 0 {
		return nil, ErrEmptyChain
	}
	for i, leg := range doc.Options {
		if err := Normalize(leg); err != nil {
			return nil, fmt.Errorf("chains: option %d: %w", i, err)
		}
	}
	log.Debug().Str("underlying", doc.Underlying).Int("options", len(doc.Options)).
		Msg("chain ingested")
	return &doc, nil
}

// ParseHistory decodes a JSON array of daily OHLC bars of the underlying,
// used to estimate scenario deviations when the user leaves them blank.
func ParseHistory(data []byte) ([]probability.Bar, error) {
	var bars []probability.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("chains: decode history: %w", err)
	}
	return bars, nil
}

// Normalize resolves a leg's market data to concrete values: quote fields are
// scrubbed of NaN/Inf, the working premium falls back through mid, bid/ask
// midpoint and last, and implied volatility gets the flat default when the
// feed omitted it.
func Normalize(leg *models.OptionLeg) error {
	if leg.Type != models.Call && leg.Type != models.Put {
		return fmt.Errorf("unknown option type %q", leg.Type)
	}
	if !leg.Expiration.Valid() {
		return fmt.Errorf("unknown expiration month code %q", leg.Expiration.MonthCode)
	}
	if leg.Strike <= 0 {
		return fmt.Errorf("non-positive strike %g", leg.Strike)
	}

	leg.Bid = models.SanitizeFloat(leg.Bid)
	leg.Ask = models.SanitizeFloat(leg.Ask)
	leg.Last = models.SanitizeFloat(leg.Last)
	leg.Mid = models.SanitizeFloat(leg.Mid)
	leg.Delta = models.SanitizeFloat(leg.Delta)
	leg.Gamma = models.SanitizeFloat(leg.Gamma)
	leg.Vega = models.SanitizeFloat(leg.Vega)
	leg.Theta = models.SanitizeFloat(leg.Theta)
	leg.Rho = models.SanitizeFloat(leg.Rho)
	leg.Premium = models.SanitizeFloat(leg.Premium)

	if leg.Mid == 0 && (leg.Bid > 0 || leg.Ask > 0) {
		leg.Mid = (leg.Bid + leg.Ask) / 2
	}
	if leg.Premium == 0 {
		switch {
		case leg.Mid > 0:
			leg.Premium = leg.Mid
		case leg.Last > 0:
			leg.Premium = leg.Last
		}
	}

	leg.ImpliedVolatility = models.SanitizeFloatDefault(leg.ImpliedVolatility, DefaultImpliedVol)
	if leg.ImpliedVolatility <= 0 {
		leg.ImpliedVolatility = DefaultImpliedVol
	}
	return nil
}
