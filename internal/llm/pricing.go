package llm

import "strings"

// Price is USD per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// prices covers the default narration models and their larger siblings.
// Vendors report dated snapshots ("claude-haiku-4-5-20251001"), so lookups
// match on the longest listed prefix.
var prices = map[string]Price{
	"claude-haiku-4-5":  {1, 5},
	"claude-sonnet-4-5": {3, 15},
	"claude-sonnet-4":   {3, 15},
	"gpt-4o-mini":       {0.15, 0.6},
	"gpt-4o":            {2.5, 10},
	"gpt-4.1-mini":      {0.4, 1.6},
	"gemini-2.0-flash":  {0.1, 0.4},
	"gemini-2.5-flash":  {0.3, 2.5},
}

// EstimateCost returns the USD cost of a token count on model. ok is false
// when the model is not priced.
func EstimateCost(model string, input, output int) (usd float64, ok bool) {
	// OpenRouter ids carry a vendor prefix.
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	var best string
	for name := range prices {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return 0, false
	}
	p := prices[best]
	return float64(input)*p.Input/1e6 + float64(output)*p.Output/1e6, true
}
