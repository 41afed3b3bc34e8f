// Package cost estimates the spend of chat-completion calls.
package cost

// Rates holds per-model chat pricing.
type Rates struct {
	Chat map[string]ModelRate `yaml:"chat" mapstructure:"chat"`
}

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Chat computes the cost of one completion. Unknown models cost 0.
func (c *Calculator) Chat(model string, input, output int64) float64 {
	rate, ok := c.rates.Chat[model]
	if !ok {
		return 0
	}
	inCost := (float64(input) / 1e6) * rate.Input
	outCost := (float64(output) / 1e6) * rate.Output
	return inCost + outCost
}

// Known reports whether the calculator has a rate for model.
func (c *Calculator) Known(model string) bool {
	_, ok := c.rates.Chat[model]
	return ok
}

// Merge returns a copy of r with the entries of override applied on top.
func (r Rates) Merge(override Rates) Rates {
	out := Rates{Chat: make(map[string]ModelRate, len(r.Chat)+len(override.Chat))}
	for k, v := range r.Chat {
		out.Chat[k] = v
	}
	for k, v := range override.Chat {
		out.Chat[k] = v
	}
	return out
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Chat: map[string]ModelRate{
			"deepseek/deepseek-chat":     {Input: 0.30, Output: 1.20},
			"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
	}
}
