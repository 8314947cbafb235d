package pricing

import (
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
	}{
		{"1500", 1500},
		{"1500.50", 1500.50},
		{"1500,50", 1500.50},
		{"1.500,50", 1500.50},
		{"1,500.50", 1500.50},
		{"u$s 250", 250},
		{"USD 1.250", 1.25},
		{"  99,9 ", 99.9},
		{".5", 0.5},
		{"12.34.56", 12.34},
		{"", 0},
		{"abc", 0},
		{"sin precio", 0},
		{"...", 0},
	}

	for _, tc := range cases {
		got := Parse(tc.in)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// A lone separator is the decimal separator, never a thousands separator.
// Only the separator of the other kind left of the rightmost one is stripped.
func TestParseLoneSeparatorIsDecimal(t *testing.T) {
	t.Parallel()

	if got := Parse("1.500"); got != 1.5 {
		t.Fatalf("Parse(%q) = %v, want 1.5", "1.500", got)
	}
	if got := Parse("1,500"); got != 1.5 {
		t.Fatalf("Parse(%q) = %v, want 1.5", "1,500", got)
	}
	if got := Parse("1.500,00"); got != 1500 {
		t.Fatalf("Parse(%q) = %v, want 1500", "1.500,00", got)
	}
}

func TestSuggestedPercentage(t *testing.T) {
	t.Parallel()

	retail, reseller := Suggested(100, Markup{
		Retail:               0.15,
		Reseller:             0.05,
		IsRetailPercentage:   true,
		IsResellerPercentage: true,
	})
	if retail != 115 {
		t.Fatalf("unexpected retail price: %v", retail)
	}
	if reseller != 105 {
		t.Fatalf("unexpected reseller price: %v", reseller)
	}
}

func TestSuggestedFixed(t *testing.T) {
	t.Parallel()

	retail, reseller := Suggested(100, Markup{
		Retail:   50,
		Reseller: 20,
	})
	if retail != 150 {
		t.Fatalf("unexpected retail price: %v", retail)
	}
	if reseller != 120 {
		t.Fatalf("unexpected reseller price: %v", reseller)
	}
}

func TestSuggestedRounds(t *testing.T) {
	t.Parallel()

	retail, reseller := Suggested(99.99, Markup{
		Retail:               0.15,
		Reseller:             0.05,
		IsRetailPercentage:   true,
		IsResellerPercentage: true,
	})
	if retail != 114.99 {
		t.Fatalf("unexpected retail price: %v", retail)
	}
	if reseller != 104.99 {
		t.Fatalf("unexpected reseller price: %v", reseller)
	}
}

func TestDefaultSuggested(t *testing.T) {
	t.Parallel()

	retail, reseller := DefaultSuggested(200)
	if retail != 230 {
		t.Fatalf("unexpected retail price: %v", retail)
	}
	if reseller != 210 {
		t.Fatalf("unexpected reseller price: %v", reseller)
	}
}
