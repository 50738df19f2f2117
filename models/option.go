package models

import (
	"fmt"
	"time"
)

// OptionType distinguishes calls from puts.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Position sign convention: +1 long (premium paid, intrinsic owned),
// -1 short (premium received, intrinsic owed).
const (
	Long  = 1
	Short = -1
)

// MonthCodes maps futures month codes to calendar months.
var MonthCodes = map[string]time.Month{
	"F": time.January, "G": time.February, "H": time.March,
	"J": time.April, "K": time.May, "M": time.June,
	"N": time.July, "Q": time.August, "U": time.September,
	"V": time.October, "X": time.November, "Z": time.December,
}

// Expiration identifies an expiry by futures month code, single-digit year
// offset and optional day of month (0 = standard monthly expiry).
type Expiration struct {
	MonthCode string `json:"month_code"`
	Year      int    `json:"year"`
	Day       int    `json:"day"`
}

func (e Expiration) String() string {
	if e.Day > 0 {
		return fmt.Sprintf("%s%d-%02d", e.MonthCode, e.Year, e.Day)
	}
	return fmt.Sprintf("%s%d", e.MonthCode, e.Year)
}

// Valid reports whether the month code is a known futures code.
func (e Expiration) Valid() bool {
	_, ok := MonthCodes[e.MonthCode]
	return ok
}

// OptionLeg is one tradable contract as a potential strategy component.
// Market data fields are resolved to concrete values at ingestion (see the
// chains package); the engine never sees missing numerics.
type OptionLeg struct {
	Type       OptionType `json:"option_type"`
	Strike     float64    `json:"strike"`
	Premium    float64    `json:"premium"`
	Expiration Expiration `json:"expiration"`
	Quantity   int        `json:"quantity"`

	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
	Last float64 `json:"last"`
	Mid  float64 `json:"mid"`

	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`

	ImpliedVolatility float64 `json:"implied_volatility"`
	Volume            int     `json:"volume"`
	OpenInterest      int     `json:"open_interest"`

	ContractSize float64 `json:"contract_size"`

	// Surfaces computed once per generation run against the shared grid.
	// Prices and Mixture are shared read-only slices; PnL is this leg's
	// stand-alone long P&L at each grid price. AveragePnL and SigmaPnL are
	// the mixture-weighted expectation and deviation of PnL.
	Prices     []float64 `json:"-"`
	Mixture    []float64 `json:"-"`
	PnL        []float64 `json:"-"`
	AveragePnL float64   `json:"-"`
	SigmaPnL   float64   `json:"-"`
}

// IsCall reports whether the leg is a call.
func (o *OptionLeg) IsCall() bool { return o.Type == Call }

// Qty returns the contract quantity, defaulting to 1.
func (o *OptionLeg) Qty() float64 {
	if o.Quantity <= 0 {
		return 1
	}
	return float64(o.Quantity)
}

// Size returns the contract size multiplier, defaulting to 1.
func (o *OptionLeg) Size() float64 {
	if o.ContractSize <= 0 {
		return 1
	}
	return o.ContractSize
}

// Intrinsic returns the exercise value of the leg at an underlying price.
func (o *OptionLeg) Intrinsic(price float64) float64 {
	if o.Type == Call {
		if v := price - o.Strike; v > 0 {
			return v
		}
		return 0
	}
	if v := o.Strike - price; v > 0 {
		return v
	}
	return 0
}

// SignedLeg pairs a leg with its position sign (+1 long, -1 short).
type SignedLeg struct {
	Leg  *OptionLeg `json:"leg"`
	Sign int        `json:"sign"`
}

// SameExpiration reports whether all legs share one expiry. Legs from mixed
// expiries cannot form a single-expiry payoff at expiration.
func SameExpiration(legs []SignedLeg) bool {
	for i := 1; i < len(legs); i++ {
		if legs[i].Leg.Expiration != legs[0].Leg.Expiration {
			return false
		}
	}
	return true
}
