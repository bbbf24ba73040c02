package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]Tier{
		"":                      Guest,
		"   ":                   Guest,
		"guest":                 Guest,
		"free":                  Free,
		"FREE":                  Free,
		"bronze":                Free,
		"Premium.Yearly":        PremiumYearly,
		"premium-yearly":        PremiumYearly,
		"premium yearly":        PremiumYearly,
		"premium_annual":        PremiumYearly,
		"Annual Premium Plan":   PremiumYearly,
		"premium.monthly":       PremiumMonthly,
		"PREMIUM_MONTHLY":       PremiumMonthly,
		"monthly-premium":       PremiumMonthly,
		"premium":               PremiumMonthly,
		" premium ":             PremiumMonthly,
		"price_1NxPremiumYear":  Free,
		"enterprise":            Free,
		"premium_yearly":        PremiumYearly,
		"yearly":                Free,
		"free.trial.of.premium": Free,
		"non-premium":           Free,
		"not_premium":           Free,
		"premium_cancelled":     Free,
		"ex-premium":            Free,
		"no premium":            Free,
		"premiumplus":           Free,
		"premium\tyearly":       PremiumYearly,
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"", "guest", "free", "premium", "Premium.Yearly", "premium-monthly", "gold",
		"PREMIUM ANNUAL", "premium_monthly_v2", "\tpremium\n", "über premium jahr", "__", "...",
		"yearly premium monthly", "null", "undefined", "0",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(string(once)), "input %q", in)
		assert.Equal(t, once, NormalizeValue(once), "input %q", in)
	}
	assert.Equal(t, Normalize("premium_yearly"), Normalize("premium.yearly"))
}

func TestNormalizeValue(t *testing.T) {
	var nilStr *string
	plan := "premium.yearly"

	assert.Equal(t, Guest, NormalizeValue(nil))
	assert.Equal(t, Guest, NormalizeValue(nilStr))
	assert.Equal(t, Guest, NormalizeValue(false))
	assert.Equal(t, Guest, NormalizeValue(0))
	assert.Equal(t, Guest, NormalizeValue(float64(0)))
	assert.Equal(t, Free, NormalizeValue(true))
	assert.Equal(t, Free, NormalizeValue(42))
	assert.Equal(t, PremiumYearly, NormalizeValue(&plan))
	assert.Equal(t, PremiumMonthly, NormalizeValue([]byte("Premium")))
	assert.Equal(t, Free, NormalizeValue(map[string]int{"a": 1}))
}

func TestFromSubscription(t *testing.T) {
	assert.Equal(t, Free, FromSubscription(nil))
	assert.Equal(t, PremiumYearly, FromSubscription(&Subscription{Status: "active", Plan: "premium.yearly"}))
	assert.Equal(t, PremiumMonthly, FromSubscription(&Subscription{Status: "Trialing", Plan: "premium"}))
	assert.Equal(t, Free, FromSubscription(&Subscription{Status: "canceled", Plan: "premium_yearly"}))
	assert.Equal(t, Free, FromSubscription(&Subscription{Status: "past_due", Plan: "premium_monthly"}))
	assert.Equal(t, Free, FromSubscription(&Subscription{Status: "active", Plan: "starter"}))
	assert.Equal(t, Free, FromSubscription(&Subscription{Status: "active", Plan: "guest"}))
	assert.Equal(t, Free, FromSubscription(&Subscription{Status: "active", Plan: "non-premium"}))
}
