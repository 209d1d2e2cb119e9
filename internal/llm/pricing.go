package llm

import (
	"regexp"
	"strings"
)

// Price is a model's list price in USD per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// Estimate returns the USD cost of a call with the given token counts.
func (p Price) Estimate(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*p.Input + float64(outputTokens)*p.Output) / 1e6
}

var snapshotSuffix = regexp.MustCompile(`-(\d{8}|\d{4}-\d{2}-\d{2})$`)

// PriceFor looks up the list price of a model. Dated snapshots share the
// price of their base model, OpenRouter IDs ("vendor/model") are matched on
// the model part, and dots in versions count as dashes.
func PriceFor(model string) (Price, bool) {
	if _, name, ok := strings.Cut(model, "/"); ok {
		model = name
	}
	model = strings.ReplaceAll(model, ".", "-")
	if p, ok := prices[model]; ok {
		return p, true
	}
	p, ok := prices[snapshotSuffix.ReplaceAllString(model, "")]
	return p, ok
}

// prices lists the vision-capable models the providers resolve to, as
// published in early 2026.
var prices = map[string]Price{
	"claude-sonnet-4":   {Input: 3, Output: 15},
	"claude-sonnet-4-5": {Input: 3, Output: 15},
	"claude-haiku-4-5":  {Input: 1, Output: 5},
	"claude-opus-4-5":   {Input: 5, Output: 25},

	"gpt-4o":       {Input: 2.5, Output: 10},
	"gpt-4o-mini":  {Input: 0.15, Output: 0.6},
	"gpt-4-1":      {Input: 2, Output: 8},
	"gpt-4-1-mini": {Input: 0.4, Output: 1.6},
	"gpt-5-mini":   {Input: 0.25, Output: 2},

	"gemini-2-5-flash":      {Input: 0.3, Output: 2.5},
	"gemini-2-5-flash-lite": {Input: 0.1, Output: 0.4},
	"gemini-2-5-pro":        {Input: 1.25, Output: 10},
}
