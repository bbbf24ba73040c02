package tier

import (
	"strings"
	"unicode"

	"github.com/mbeoliero/learncache/utils"
)

// Tier is the subscription level of a user.
type Tier string

const (
	Guest          Tier = "guest"
	Free           Tier = "free"
	PremiumMonthly Tier = "premium_monthly"
	PremiumYearly  Tier = "premium_yearly"
)

func (t Tier) String() string {
	return string(t)
}

// IsPremium reports whether t grants paid features.
func (t Tier) IsPremium() bool {
	return t == PremiumMonthly || t == PremiumYearly
}

var separators = strings.NewReplacer(".", "_", "-", "_", " ", "_")

// negations disqualify a plan that otherwise names premium.
var negations = map[string]struct{}{
	"non": {}, "not": {}, "no": {}, "ex": {}, "former": {}, "free": {},
	"cancelled": {}, "canceled": {}, "expired": {},
}

// Normalize maps any upstream representation of a plan to a Tier. It is total and
// idempotent: blank input is Guest and anything unrecognized is Free. A plan is premium
// only when "premium" appears as a whole word and nothing in it negates that.
func Normalize(raw string) Tier {
	s := separators.Replace(strings.ToLower(strings.TrimSpace(raw)))
	switch Tier(s) {
	case "":
		return Guest
	case Guest, Free, PremiumMonthly, PremiumYearly:
		return Tier(s)
	}

	premium, yearly := false, false
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == '_' || unicode.IsSpace(r) }) {
		if _, ok := negations[tok]; ok {
			return Free
		}
		switch {
		case tok == "premium":
			premium = true
		case strings.Contains(tok, "year"), strings.Contains(tok, "annual"):
			yearly = true
		}
	}
	switch {
	case !premium:
		return Free
	case yearly:
		return PremiumYearly
	default:
		return PremiumMonthly
	}
}

// NormalizeValue is Normalize for loosely typed input such as decoded JSON. Nil and
// zero values are Guest.
func NormalizeValue(v any) Tier {
	switch val := v.(type) {
	case nil:
		return Guest
	case Tier:
		return Normalize(string(val))
	case string:
		return Normalize(val)
	case *string:
		if val == nil {
			return Guest
		}
		return Normalize(*val)
	case bool:
		if !val {
			return Guest
		}
		return Free
	case int:
		if val == 0 {
			return Guest
		}
	case float64:
		if val == 0 {
			return Guest
		}
	}
	return Normalize(utils.ToString(v))
}
