package money

import "github.com/shopspring/decimal"

// RevenueSplit is derived from a payment amount at read time and never
// persisted, so a rate change cannot drift against stored records.
type RevenueSplit struct {
	PlatformMinor int64
	TutorMinor    int64
}

// DefaultPlatformRate is used when the configured rate cannot be parsed.
var DefaultPlatformRate = decimal.RequireFromString("0.25")

func ParseRate(raw string) decimal.Decimal {
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return DefaultPlatformRate
	}
	return rate
}

// Split divides amountMinor between platform and tutor. The platform share
// is rounded at the minor unit with bankers' rounding and the tutor share
// is the remainder, so the two always sum to amountMinor exactly.
func Split(amountMinor int64, rate decimal.Decimal) RevenueSplit {
	platform := decimal.NewFromInt(amountMinor).Mul(rate).RoundBank(0).IntPart()
	return RevenueSplit{
		PlatformMinor: platform,
		TutorMinor:    amountMinor - platform,
	}
}
