// Package plan defines the subscription plan limits that govern alert
// generation, shared by the burn-rate estimator and the alert engine.
package plan

// Name identifies one of the CLI's selectable plans.
type Name string

const (
	Free   Name = "free"
	PAYG   Name = "payg"
	Tier1  Name = "tier1"
	Tier2  Name = "tier2"
	Pro    Name = "pro"
	Max5   Name = "max5"
	Max20  Name = "max20"
	Custom Name = "custom"
)

// WarningThresholds is the fixed alert ladder, in percent of limit.
var WarningThresholds = []float64{50, 75, 90, 95}

// Limits bounds token and cost usage for a plan, with "unlimited"
// represented explicitly rather than via a sentinel value.
type Limits struct {
	Name                Name
	TokenLimit          int64
	TokenLimitUnlimited bool
	CostLimit           float64
	CostLimitUnlimited  bool
}

// Unlimited returns a Limits with no bound on either dimension.
func Unlimited(name Name) Limits {
	return Limits{Name: name, TokenLimitUnlimited: true, CostLimitUnlimited: true}
}

// knownTokenLimits are the built-in, non-custom plans' token budgets;
// the same three values appear as p90.KnownLimits.
var knownTokenLimits = map[Name]int64{
	Pro:   44_000,
	Max5:  88_000,
	Max20: 220_000,
}

// Default returns the built-in Limits for a named plan. Only pro, max5
// and max20 carry a token budget; every other plan (free, payg, tier1,
// tier2, custom, and unrecognized names) returns Unlimited. For Custom,
// callers override TokenLimit from the P90 calculator's output.
func Default(name Name) Limits {
	if limit, ok := knownTokenLimits[name]; ok {
		return Limits{Name: name, TokenLimit: limit, CostLimitUnlimited: true}
	}
	return Unlimited(name)
}

// WithCustomLimits builds the "custom" plan's Limits from a token limit
// (the user's override, or zero to let the driver fill it in from the
// P90 calculator) and an optional user-specified cost limit.
func WithCustomLimits(tokenLimit int64, costLimit float64, costLimitSet bool) Limits {
	return Limits{
		Name:               Custom,
		TokenLimit:         tokenLimit,
		CostLimit:          costLimit,
		CostLimitUnlimited: !costLimitSet,
	}
}
