package alerts

import "math"

const resetEtaThresholdMinutes = 30.0

// ShouldResetSession reports true when any active alert is at DANGER,
// or any metric is >= 90% of its limit with less than 30 minutes
// estimated until that limit is hit.
func ShouldResetSession(activeAlerts []Alert) (bool, string) {
	for _, a := range activeAlerts {
		if a.Level == LevelDanger {
			return true, "an active alert has reached the DANGER level"
		}
	}
	for _, a := range activeAlerts {
		if a.Metric != MetricTokens && a.Metric != MetricCost {
			continue
		}
		pct := 100 * a.CurrentValue / a.ThresholdValue
		if pct >= 90 && a.EstimatedTimeToLim < resetEtaThresholdMinutes {
			return true, "usage is at or above 90% with less than 30 minutes to the limit"
		}
	}
	return false, "usage is within safe bounds"
}

// SessionHealthScore computes 100 - max(pctTokens, pctCost), reduced
// 10 per CRITICAL alert and 25 per DANGER alert, clamped to [0, 100].
func SessionHealthScore(pctTokens, pctCost float64, activeAlerts []Alert) float64 {
	maxPct := math.Max(pctTokens, pctCost)
	score := 100 - maxPct

	for _, a := range activeAlerts {
		switch a.Level {
		case LevelCritical:
			score -= 10
		case LevelDanger:
			score -= 25
		}
	}

	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
