package analysis

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	priceNoise  = regexp.MustCompile(`[€$£,\s]`)
	priceNumber = regexp.MustCompile(`\d+\.?\d*`)
)

// ParsePrice normalizes a raw cell into a non-negative price.
// Currency symbols, thousands separators and whitespace are stripped and the
// first numeric run is taken. The second return is false when nothing usable
// is found.
func ParsePrice(raw string) (decimal.Decimal, bool) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, false
	}

	match := priceNumber.FindString(priceNoise.ReplaceAllString(raw, ""))
	if match == "" {
		return decimal.Zero, false
	}

	value, err := decimal.NewFromString(strings.TrimSuffix(match, "."))
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

// formatPrice renders a price for human-readable output
func formatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// formatPercent renders a percentage with one decimal place
func formatPercent(d decimal.Decimal) string {
	return d.StringFixed(1)
}

// toFloat converts a monetary amount for the wire, rounded to cents
func toFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func floatPtr(d decimal.Decimal) *float64 {
	f := toFloat(d)
	return &f
}
