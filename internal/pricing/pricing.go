// Package pricing normalizes free-text marketplace prices into a numeric
// value plus currency, and converts between currencies using fixed rates.
package pricing

import (
	"regexp"
	"strconv"
	"strings"
)

// Currency is a closed set of recognized currency codes. Codes outside the
// set pass through conversion unchanged.
type Currency string

const (
	GBP Currency = "GBP"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// Fixed conversion rates. These are configuration constants, not live FX.
const (
	gbpToUSD = 1.27
	eurToUSD = 1.08
)

var (
	gbpChars   = regexp.MustCompile(`(?i)[£GBP\s]`)
	usdChars   = regexp.MustCompile(`(?i)[$USD\s]`)
	eurChars   = regexp.MustCompile(`(?i)[€EUR\s]`)
	nonNumeric = regexp.MustCompile(`[^0-9.]`)
	leadingNum = regexp.MustCompile(`^[0-9]*\.?[0-9]+`)
)

// ParseRaw parses a free-text price string into a numeric value and currency.
// Classification checks the pound sign/GBP first, then dollar/USD, then
// euro/EUR; anything else falls back to USD with non-numeric characters
// stripped. An unparseable value normalizes to zero — callers must treat
// zero as "unparseable", not as a free item.
func ParseRaw(text string) (float64, Currency) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	upper := strings.ToUpper(cleaned)

	switch {
	case strings.Contains(cleaned, "£") || strings.Contains(upper, "GBP"):
		return parseValue(gbpChars.ReplaceAllString(cleaned, "")), GBP
	case strings.Contains(cleaned, "$") || strings.Contains(upper, "USD"):
		return parseValue(usdChars.ReplaceAllString(cleaned, "")), USD
	case strings.Contains(cleaned, "€") || strings.Contains(upper, "EUR"):
		return parseValue(eurChars.ReplaceAllString(cleaned, "")), EUR
	}

	return parseValue(nonNumeric.ReplaceAllString(cleaned, "")), USD
}

// ToUSD converts a value in the given currency to US dollars. Unrecognized
// codes pass through unconverted, keeping the conversion total.
func ToUSD(value float64, currency Currency) float64 {
	switch currency {
	case GBP:
		return value * gbpToUSD
	case EUR:
		return value * eurToUSD
	case USD:
		return value
	default:
		return value
	}
}

// parseValue extracts the leading numeric portion of s, so trailing noise
// such as "+ postage" does not turn a valid price into zero.
func parseValue(s string) float64 {
	num := leadingNum.FindString(s)
	if num == "" {
		return 0
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return value
}
