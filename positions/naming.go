package positions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/delatour/stratgen/models"
)

// Classify derives a strategy family and display name from the signed-strike
// pattern of a leg set. Recognition covers the common 1..4 leg shapes; any
// other combination gets the generic "{n}Leg_{c}C{p}P_{strikes}" fallback.
// The family name carries no strikes so whitelists stay stable across chains.
func Classify(legs []models.SignedLeg) (family, display string) {
	ordered := make([]models.SignedLeg, len(legs))
	copy(ordered, legs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Leg.Strike != ordered[j].Leg.Strike {
			return ordered[i].Leg.Strike < ordered[j].Leg.Strike
		}
		// Puts before calls at equal strikes, matching the iron shapes.
		return !ordered[i].Leg.IsCall() && ordered[j].Leg.IsCall()
	})

	family = classify(ordered)
	if family == "" {
		family = fallbackFamily(ordered)
	}
	return family, family + " " + strikeList(ordered)
}

func classify(legs []models.SignedLeg) string {
	switch len(legs) {
	case 1:
		return singleLeg(legs[0])
	case 2:
		return twoLeg(legs)
	case 3:
		return threeLeg(legs)
	case 4:
		return fourLeg(legs)
	}
	return ""
}

func singleLeg(sl models.SignedLeg) string {
	side := "Long"
	if sl.Sign == models.Short {
		side = "Short"
	}
	kind := "Put"
	if sl.Leg.IsCall() {
		kind = "Call"
	}
	return side + " " + kind
}

func twoLeg(legs []models.SignedLeg) string {
	a, b := legs[0], legs[1]
	sameType := a.Leg.Type == b.Leg.Type

	if sameType && a.Sign != b.Sign && a.Leg.Strike != b.Leg.Strike {
		// Vertical spread: a is the lower strike.
		if a.Leg.IsCall() {
			if a.Sign == models.Long {
				return "BullCallSpread"
			}
			return "BearCallSpread"
		}
		if a.Sign == models.Long {
			return "BullPutSpread"
		}
		return "BearPutSpread"
	}

	if !sameType && a.Sign == b.Sign {
		side := "Long"
		if a.Sign == models.Short {
			side = "Short"
		}
		if a.Leg.Strike == b.Leg.Strike {
			return side + "Straddle"
		}
		// Strangle reads put-below-call; the mirrored shape (a guts
		// combination) falls through to the generic name.
		if !a.Leg.IsCall() && b.Leg.IsCall() {
			return side + "Strangle"
		}
	}
	return ""
}

func threeLeg(legs []models.SignedLeg) string {
	if !sameOptionType(legs) {
		return ""
	}
	if !strictlyAscending(legs) {
		return ""
	}
	kind := "Put"
	if legs[0].Leg.IsCall() {
		kind = "Call"
	}
	switch signPattern(legs) {
	case "+-+":
		return kind + "Butterfly"
	case "-+-":
		return "Short" + kind + "Butterfly"
	case "+--":
		if kind == "Call" {
			return "CallLadder"
		}
	case "--+":
		if kind == "Put" {
			return "PutLadder"
		}
	}
	return ""
}

func fourLeg(legs []models.SignedLeg) string {
	if signPattern(legs) != "+--+" {
		return ""
	}
	if sameOptionType(legs) {
		if !strictlyAscending(legs) {
			return ""
		}
		if legs[0].Leg.IsCall() {
			return "CallCondor"
		}
		return "PutCondor"
	}
	// Iron shapes: put wing below, call wing above.
	if legs[0].Leg.IsCall() || legs[1].Leg.IsCall() || !legs[2].Leg.IsCall() || !legs[3].Leg.IsCall() {
		return ""
	}
	if legs[0].Leg.Strike >= legs[1].Leg.Strike || legs[2].Leg.Strike >= legs[3].Leg.Strike {
		return ""
	}
	if legs[1].Leg.Strike == legs[2].Leg.Strike {
		return "IronButterfly"
	}
	if legs[1].Leg.Strike < legs[2].Leg.Strike {
		return "IronCondor"
	}
	return ""
}

func fallbackFamily(legs []models.SignedLeg) string {
	calls, puts := 0, 0
	for _, sl := range legs {
		if sl.Leg.IsCall() {
			calls++
		} else {
			puts++
		}
	}
	return fmt.Sprintf("%dLeg_%dC%dP", len(legs), calls, puts)
}

func strikeList(legs []models.SignedLeg) string {
	parts := make([]string, len(legs))
	for i, sl := range legs {
		parts[i] = fmt.Sprintf("%.2f", sl.Leg.Strike)
	}
	return strings.Join(parts, "/")
}

func sameOptionType(legs []models.SignedLeg) bool {
	for i := 1; i < len(legs); i++ {
		if legs[i].Leg.Type != legs[0].Leg.Type {
			return false
		}
	}
	return true
}

func strictlyAscending(legs []models.SignedLeg) bool {
	for i := 1; i < len(legs); i++ {
		if legs[i].Leg.Strike <= legs[i-1].Leg.Strike {
			return false
		}
	}
	return true
}

func signPattern(legs []models.SignedLeg) string {
	var b strings.Builder
	for _, sl := range legs {
		if sl.Sign == models.Long {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}
