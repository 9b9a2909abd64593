package alerts

import (
	"fmt"
	"math"
	"time"

	"github.com/arvindn/genaicost/internal/aggregator"
	"github.com/arvindn/genaicost/internal/burnrate"
	"github.com/arvindn/genaicost/internal/plan"
)

// burnTokensWarn/Crit and burnCostWarn/Crit are the burn-rate alert
// thresholds, in tokens per minute and dollars per minute.
const (
	burnTokensWarn = 10_000.0
	burnTokensCrit = 25_000.0
	burnCostWarn   = 1.00
	burnCostCrit   = 2.50
)

// Evaluate derives the current set of alerts from usage stats, the
// latest burn-rate estimate, and the plan limits in effect.
func Evaluate(stats aggregator.UsageStats, rate burnrate.BurnRate, limits plan.Limits, now time.Time) []Alert {
	var out []Alert

	if a, ok := evaluatePercentMetric(MetricTokens, float64(stats.Tokens.Total()), limits.TokenLimitUnlimited, float64(limits.TokenLimit), rate.EstimatedTimeToLimit, now); ok {
		out = append(out, a)
	}
	if a, ok := evaluatePercentMetric(MetricCost, stats.Cost, limits.CostLimitUnlimited, limits.CostLimit, rate.EstimatedTimeToLimit, now); ok {
		out = append(out, a)
	}

	if a, ok := evaluateBurnMetric(MetricBurnTokens, rate.TokensPerMinute, burnTokensWarn, burnTokensCrit, now); ok {
		out = append(out, a)
	}
	if a, ok := evaluateBurnMetric(MetricBurnCost, rate.CostPerMinute, burnCostWarn, burnCostCrit, now); ok {
		out = append(out, a)
	}

	return out
}

func evaluatePercentMetric(metric Metric, current float64, unlimited bool, limit float64, eta float64, now time.Time) (Alert, bool) {
	if unlimited || limit <= 0 {
		return Alert{}, false
	}
	pct := 100 * current / limit
	level := levelForPercent(pct)
	if level == LevelNone {
		return Alert{}, false
	}

	a := Alert{
		Level:              level,
		Metric:             metric,
		CurrentValue:       current,
		ThresholdValue:     limit,
		Severity:           severityFor(pct),
		EstimatedTimeToLim: eta,
		Timestamp:          now,
	}
	a.Message, a.RecommendedAction = messageAndAction(level, metric, current, limit, eta)
	return a, true
}

func evaluateBurnMetric(metric Metric, current, warnThreshold, critThreshold float64, now time.Time) (Alert, bool) {
	var level Level
	switch {
	case current > critThreshold:
		level = LevelCritical
	case current > warnThreshold:
		level = LevelWarning
	default:
		return Alert{}, false
	}

	threshold := warnThreshold
	if level == LevelCritical {
		threshold = critThreshold
	}

	a := Alert{
		Level:              level,
		Metric:             metric,
		CurrentValue:       current,
		ThresholdValue:     threshold,
		Severity:           severityFor(100 * current / threshold),
		EstimatedTimeToLim: math.Inf(1),
		Timestamp:          now,
	}
	a.Message, a.RecommendedAction = messageAndAction(level, metric, current, threshold, math.Inf(1))
	return a, true
}

func messageAndAction(level Level, metric Metric, current, threshold, eta float64) (message, action string) {
	message = fmt.Sprintf("%s %s at %.2f (threshold %.2f)", metric, level, current, threshold)
	if !math.IsInf(eta, 1) {
		message += fmt.Sprintf(", ~%.1f min to limit", eta)
	}
	action = recommendedAction(level, metric)
	return message, action
}

// recommendedAction is keyed by (level, metric).
func recommendedAction(level Level, metric Metric) string {
	switch {
	case level == LevelDanger && (metric == MetricCost || metric == MetricBurnCost):
		return "IMMEDIATE ACTION REQUIRED. Stop current session to avoid exceeding budget."
	case level == LevelDanger:
		return "IMMEDIATE ACTION REQUIRED. Stop current session to avoid exceeding your usage limit."
	case level == LevelCritical && (metric == MetricTokens || metric == MetricBurnTokens):
		return "Plan to reset session soon. Review usage patterns and optimize prompts to reduce consumption."
	case level == LevelCritical:
		return "Plan to reduce spend soon. Review recent model choices and prompt sizes."
	case level == LevelWarning:
		return "Monitor usage closely; consider switching to a cheaper model for non-critical work."
	default:
		return "No action needed; usage is within normal bounds."
	}
}
