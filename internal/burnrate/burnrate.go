// Package burnrate estimates tokens/cost consumed per minute from the
// recent record tail, with a confidence score and a time-to-limit
// projection.
package burnrate

import (
	"math"
	"time"

	"github.com/arvindn/genaicost/internal/plan"
	"github.com/arvindn/genaicost/internal/record"
)

// DefaultWindow is the lookback used to derive the burn rate.
const DefaultWindow = 10 * time.Minute

// BurnRate is the estimated consumption rate and projected time to
// the active limits.
type BurnRate struct {
	TokensPerMinute      float64
	CostPerMinute        float64
	EstimatedTimeToLimit float64 // minutes; math.Inf(1) for infinity
	Confidence           float64
}

// Estimate computes the BurnRate from the tail of records within the
// last window minutes ending at now, projecting time-to-limit against
// currentTokens/currentCost and the active plan limits.
func Estimate(recordsInWindow []record.Record, window time.Duration, currentTokens int64, currentCost float64, limits plan.Limits) BurnRate {
	if len(recordsInWindow) < 2 {
		return BurnRate{EstimatedTimeToLimit: math.Inf(1)}
	}

	minutes := window.Minutes()

	var totalTokens int64
	var totalCost float64
	for _, r := range recordsInWindow {
		totalTokens += r.Tokens.Total()
		totalCost += r.Cost
	}

	tokensPerMinute := float64(totalTokens) / minutes
	costPerMinute := totalCost / minutes

	eta := projectTimeToLimit(tokensPerMinute, costPerMinute, currentTokens, currentCost, limits)

	return BurnRate{
		TokensPerMinute:      tokensPerMinute,
		CostPerMinute:        costPerMinute,
		EstimatedTimeToLimit: eta,
		Confidence:           confidence(len(recordsInWindow)),
	}
}

func projectTimeToLimit(tokensPerMinute, costPerMinute float64, currentTokens int64, currentCost float64, limits plan.Limits) float64 {
	var etaTokens = math.Inf(1)
	if !limits.TokenLimitUnlimited && currentTokens < limits.TokenLimit && tokensPerMinute > 0 {
		etaTokens = float64(limits.TokenLimit-currentTokens) / tokensPerMinute
	}

	var etaCost = math.Inf(1)
	if !limits.CostLimitUnlimited && currentCost < limits.CostLimit && costPerMinute > 0 {
		etaCost = (limits.CostLimit - currentCost) / costPerMinute
	}

	if tokensPerMinute == 0 && costPerMinute == 0 {
		return math.Inf(1)
	}

	return math.Min(etaTokens, etaCost)
}

func confidence(n int) float64 {
	c := float64(n) / 20.0
	if c > 1.0 {
		return 1.0
	}
	return c
}
