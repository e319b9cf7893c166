package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRaw(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		value    float64
		currency Currency
	}{
		{name: "pound symbol", text: "£25.00", value: 25, currency: GBP},
		{name: "gbp code", text: "25.00 GBP", value: 25, currency: GBP},
		{name: "dollar symbol", text: "$59.99", value: 59.99, currency: USD},
		{name: "usd code", text: "59.99 USD", value: 59.99, currency: USD},
		{name: "euro symbol", text: "€40.50", value: 40.5, currency: EUR},
		{name: "eur code", text: "40.50 EUR", value: 40.5, currency: EUR},
		{name: "thousands separator", text: "$1,299.00", value: 1299, currency: USD},
		{name: "bare number falls back to USD", text: "42.00", value: 42, currency: USD},
		{name: "noise around number", text: "about 42 total", value: 42, currency: USD},
		{name: "trailing noise after amount", text: "£19.99 + postage", value: 19.99, currency: GBP},
		{name: "empty string", text: "", value: 0, currency: USD},
		{name: "no number", text: "Price not found", value: 0, currency: USD},
		{name: "lowercase code", text: "12 gbp", value: 12, currency: GBP},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value, currency := ParseRaw(tc.text)
			assert.InDelta(t, tc.value, value, 1e-9)
			assert.Equal(t, tc.currency, currency)
		})
	}
}

// Classification checks GBP before USD before EUR, so a string carrying
// multiple symbols resolves to the highest-priority one.
func TestParseRawPriorityOrder(t *testing.T) {
	testCases := []struct {
		text     string
		currency Currency
	}{
		{text: "£10 ($12.70)", currency: GBP},
		{text: "$12.70 (£10)", currency: GBP},
		{text: "$10 (€9.20)", currency: USD},
		{text: "€9.20 ($10)", currency: USD},
		{text: "€9.20 only", currency: EUR},
	}

	for _, tc := range testCases {
		_, currency := ParseRaw(tc.text)
		assert.Equal(t, tc.currency, currency, "text: %s", tc.text)
	}
}

func TestToUSD(t *testing.T) {
	assert.InDelta(t, 12.7, ToUSD(10, GBP), 1e-9)
	assert.InDelta(t, 10.8, ToUSD(10, EUR), 1e-9)
	assert.InDelta(t, 10.0, ToUSD(10, USD), 1e-9)

	// Unrecognized codes pass through unconverted.
	assert.InDelta(t, 10.0, ToUSD(10, Currency("JPY")), 1e-9)
}

// Conversion is linear: scaling the input scales the output.
func TestToUSDLinearity(t *testing.T) {
	for _, currency := range []Currency{GBP, USD, EUR} {
		for _, k := range []float64{2, 10, 0.5} {
			assert.InDelta(t, k*ToUSD(7.5, currency), ToUSD(k*7.5, currency), 1e-9)
		}
	}
}
