package pricing

import "github.com/arvindn/genaicost/internal/record"

const tokenUnit = 1_000_000.0

// CostOf computes the dot-product cost in USD for the given token usage
// under the named model, plus the counterfactual cache savings had the
// cache-read tokens instead been billed at the input rate. A non-nil
// error wraps analytics.ErrUnknownModel and means the DefaultModel
// fallback rates were used; cost and savings are still valid.
func CostOf(model string, tokens record.TokenUsage) (cost record.Money, savings record.Money, err error) {
	rates, err := Lookup(model)

	cost = (float64(tokens.Input)*rates.Input +
		float64(tokens.Output)*rates.Output +
		float64(tokens.CacheCreation)*rates.CacheCreation +
		float64(tokens.CacheRead)*rates.CacheRead) / tokenUnit

	savings = float64(tokens.CacheRead) * (rates.Input - rates.CacheRead) / tokenUnit

	return cost, savings, err
}
