package llm

import (
	"math"
	"testing"
)

func TestPriceFor(t *testing.T) {
	cases := []struct {
		model string
		want  Price
		ok    bool
	}{
		{"gemini-2.5-flash", Price{0.3, 2.5}, true},
		{"claude-sonnet-4-20250514", Price{3, 15}, true},
		{"gpt-4o-2024-08-06", Price{2.5, 10}, true},
		{"anthropic/claude-haiku-4.5", Price{1, 5}, true},
		{"google/gemini-2.5-pro", Price{1.25, 10}, true},
		{"tesseract-5", Price{}, false},
	}
	for _, tc := range cases {
		got, ok := PriceFor(tc.model)
		if ok != tc.ok || got != tc.want {
			t.Errorf("PriceFor(%q) = %v, %v; want %v, %v", tc.model, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPriceEstimate(t *testing.T) {
	p, _ := PriceFor("gemini-2.5-flash")
	if got := p.Estimate(1_000_000, 100_000); math.Abs(got-0.55) > 1e-9 {
		t.Fatalf("estimate = %f, want 0.55", got)
	}
}
