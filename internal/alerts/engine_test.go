package alerts

import (
	"math"
	"testing"
	"time"

	"github.com/arvindn/genaicost/internal/aggregator"
	"github.com/arvindn/genaicost/internal/burnrate"
	"github.com/arvindn/genaicost/internal/plan"
	"github.com/arvindn/genaicost/internal/record"
)

func TestEvaluate_HighUsageCriticalOnBothMetrics(t *testing.T) {
	stats := aggregator.UsageStats{Tokens: record.TokenUsage{Input: 920_000}, Cost: 92.00}
	rate := burnrate.BurnRate{TokensPerMinute: 2500, CostPerMinute: 0.25, EstimatedTimeToLimit: 32}
	limits := plan.Limits{TokenLimit: 1_000_000, CostLimit: 100.00}

	got := Evaluate(stats, rate, limits, time.Now())

	var tokens, cost *Alert
	for i := range got {
		switch got[i].Metric {
		case MetricTokens:
			tokens = &got[i]
		case MetricCost:
			cost = &got[i]
		case MetricBurnTokens, MetricBurnCost:
			t.Errorf("unexpected burn alert emitted: %+v", got[i])
		}
	}
	if tokens == nil || tokens.Level != LevelCritical {
		t.Fatalf("expected CRITICAL tokens alert, got %+v", tokens)
	}
	if cost == nil || cost.Level != LevelCritical {
		t.Fatalf("expected CRITICAL cost alert, got %+v", cost)
	}

	// 92% is over the critical threshold but eta(32) is not under 30
	// minutes and no DANGER alert fired, so reset is not recommended yet.
	reset, _ := ShouldResetSession(got)
	if reset {
		t.Error("expected ShouldResetSession = false")
	}
}

func TestEvaluate_ThresholdBoundaryInclusive(t *testing.T) {
	cases := []struct {
		pct   float64
		level Level
	}{
		{50, LevelInfo},
		{74.999, LevelInfo},
		{75, LevelWarning},
		{89.999, LevelWarning},
		{90, LevelCritical},
		{94.999, LevelCritical},
		{95, LevelDanger},
		{100, LevelDanger},
		{120, LevelDanger},
	}
	for _, tc := range cases {
		level := levelForPercent(tc.pct)
		if level != tc.level {
			t.Errorf("levelForPercent(%v) = %v, want %v", tc.pct, level, tc.level)
		}
	}
}

func TestEvaluate_OverLimitSeverityCapped(t *testing.T) {
	stats := aggregator.UsageStats{Tokens: record.TokenUsage{Input: 1_500_000}}
	rate := burnrate.BurnRate{EstimatedTimeToLimit: math.Inf(1)}
	limits := plan.Limits{TokenLimit: 1_000_000}

	got := Evaluate(stats, rate, limits, time.Now())
	if len(got) != 1 {
		t.Fatalf("expected one alert, got %d", len(got))
	}
	if got[0].Level != LevelDanger {
		t.Errorf("expected DANGER, got %v", got[0].Level)
	}
	if got[0].Severity != 100 {
		t.Errorf("Severity = %v, want capped at 100", got[0].Severity)
	}
}

func TestEvaluate_BurnTokensAlert(t *testing.T) {
	rate := burnrate.BurnRate{TokensPerMinute: 15_000}
	got := Evaluate(aggregator.UsageStats{}, rate, plan.Limits{TokenLimitUnlimited: true, CostLimitUnlimited: true}, time.Now())

	var burnAlert *Alert
	for i := range got {
		if got[i].Metric == MetricBurnTokens {
			burnAlert = &got[i]
		}
	}
	if burnAlert == nil {
		t.Fatal("expected BURN_TOKENS alert")
	}
	if burnAlert.Level != LevelWarning {
		t.Errorf("Level = %v, want WARNING", burnAlert.Level)
	}
}

func TestShouldResetSession_DangerAlwaysResets(t *testing.T) {
	alerts := []Alert{{Level: LevelDanger, Metric: MetricCost, EstimatedTimeToLim: math.Inf(1)}}
	reset, _ := ShouldResetSession(alerts)
	if !reset {
		t.Error("expected reset = true when any alert is DANGER, even with infinite ETA")
	}
}

func TestSessionHealthScore(t *testing.T) {
	alerts := []Alert{{Level: LevelCritical}, {Level: LevelDanger}}
	score := SessionHealthScore(80, 60, alerts)
	// 100 - 80 - 10 - 25 = -15 -> clamped to 0
	if score != 0 {
		t.Errorf("score = %v, want 0", score)
	}
}

func TestAlertMonotonicityInUsage(t *testing.T) {
	// For fixed limits and increasing usage, the max alert level
	// observed must be non-decreasing.
	limits := plan.Limits{TokenLimit: 1_000_000, CostLimitUnlimited: true}
	usageSeq := []int64{100_000, 500_000, 800_000, 920_000, 980_000}
	prevMax := LevelNone
	for _, tokens := range usageSeq {
		stats := aggregator.UsageStats{Tokens: record.TokenUsage{Input: tokens}}
		got := Evaluate(stats, burnrate.BurnRate{EstimatedTimeToLimit: math.Inf(1)}, limits, time.Now())
		max := LevelNone
		for _, a := range got {
			if a.Level > max {
				max = a.Level
			}
		}
		if max < prevMax {
			t.Fatalf("alert level decreased: prev=%v now=%v at tokens=%d", prevMax, max, tokens)
		}
		prevMax = max
	}
}
