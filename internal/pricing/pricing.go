// Package pricing implements price parsing and the markup policy that derives
// suggested sale prices from a provider's cost price.
package pricing

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultRetailFactor applies when an entry has no category markup.
	DefaultRetailFactor = 1.15
	// DefaultResellerFactor applies when an entry has no category markup.
	DefaultResellerFactor = 1.05
)

// Markup is a category's pricing policy. A percentage markup multiplies the
// cost price by (1 + value); a fixed markup adds the value to it.
type Markup struct {
	Retail               float64
	Reseller             float64
	IsRetailPercentage   bool
	IsResellerPercentage bool
}

// Suggested derives the retail and reseller sale prices from a cost price.
// Results are rounded to two decimals.
func Suggested(price float64, m Markup) (retail, reseller float64) {
	if m.IsRetailPercentage {
		retail = price * (1 + m.Retail)
	} else {
		retail = price + m.Retail
	}
	if m.IsResellerPercentage {
		reseller = price * (1 + m.Reseller)
	} else {
		reseller = price + m.Reseller
	}
	return round2(retail), round2(reseller)
}

// DefaultSuggested derives sale prices with the default factors.
func DefaultSuggested(price float64) (retail, reseller float64) {
	return round2(price * DefaultRetailFactor), round2(price * DefaultResellerFactor)
}

// Parse reads a price out of free-form text. The rightmost of ',' and '.' is
// treated as the decimal separator and the other as a thousands separator.
// Unparseable input yields 0.
func Parse(raw string) float64 {
	cleaned := strings.TrimSpace(raw)

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	if lastComma > lastDot {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	var builder strings.Builder
	for _, r := range cleaned {
		if (r >= '0' && r <= '9') || r == '.' {
			builder.WriteRune(r)
		}
	}

	prefix := leadingNumber(builder.String())
	if prefix == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// leadingNumber keeps the longest prefix with digits and at most one dot.
func leadingNumber(s string) string {
	sawDigit := false
	sawDot := false
	end := 0
	for i, r := range s {
		if r == '.' {
			if sawDot {
				break
			}
			sawDot = true
		} else {
			sawDigit = true
		}
		end = i + 1
	}
	if !sawDigit {
		return ""
	}
	return s[:end]
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
