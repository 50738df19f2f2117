package models

import (
	"fmt"
	"math"
	"strconv"
)

// Real is a float64 that survives JSON round-trips when non-finite. Plain
// JSON has no encoding for Inf or NaN; Real writes them as the string
// sentinels "inf", "-inf" and "nan" and reads both forms back.
type Real float64

func (r Real) Float() float64 { return float64(r) }

func (r Real) MarshalJSON() ([]byte, error) {
	v := float64(r)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-inf"`), nil
	case math.IsNaN(v):
		return []byte(`"nan"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (r *Real) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"inf"`, `"+inf"`:
		*r = Real(math.Inf(1))
		return nil
	case `"-inf"`:
		*r = Real(math.Inf(-1))
		return nil
	case `"nan"`:
		*r = Real(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("models: bad real %q: %w", data, err)
	}
	*r = Real(v)
	return nil
}
