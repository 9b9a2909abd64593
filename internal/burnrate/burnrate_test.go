package burnrate

import (
	"math"
	"testing"
	"time"

	"github.com/arvindn/genaicost/internal/plan"
	"github.com/arvindn/genaicost/internal/record"
)

func TestEstimate_FewerThanTwoRecordsReturnsZero(t *testing.T) {
	br := Estimate(nil, DefaultWindow, 0, 0, plan.Limits{TokenLimitUnlimited: true, CostLimitUnlimited: true})
	if br.TokensPerMinute != 0 || br.CostPerMinute != 0 || br.Confidence != 0 {
		t.Errorf("expected zeroed BurnRate, got %+v", br)
	}
	if !math.IsInf(br.EstimatedTimeToLimit, 1) {
		t.Errorf("expected infinite ETA, got %v", br.EstimatedTimeToLimit)
	}
}

func TestEstimate_ProjectsTimeToTokenLimit(t *testing.T) {
	records := make([]record.Record, 12)
	for i := range records {
		records[i] = record.Record{
			Timestamp: time.Now(),
			Tokens:    record.TokenUsage{Input: 2500 * 10 / 12},
			Cost:      0.25 * 10 / 12,
		}
	}
	limits := plan.Limits{TokenLimit: 1_000_000, CostLimit: 100.00}
	br := Estimate(records, 10*time.Minute, 920_000, 92.00, limits)

	if math.Abs(br.TokensPerMinute-2500) > 1 {
		t.Errorf("TokensPerMinute = %v, want ~2500", br.TokensPerMinute)
	}
	if math.Abs(br.CostPerMinute-0.25) > 0.01 {
		t.Errorf("CostPerMinute = %v, want ~0.25", br.CostPerMinute)
	}
	if math.Abs(br.EstimatedTimeToLimit-32) > 0.5 {
		t.Errorf("EstimatedTimeToLimit = %v, want ~32", br.EstimatedTimeToLimit)
	}
}

func TestEstimate_BurnGatingThreshold(t *testing.T) {
	// 12 records in 10 minutes totaling 150,000 tokens -> 15,000/min,
	// above the burn-rate warning threshold.
	records := make([]record.Record, 12)
	for i := range records {
		records[i] = record.Record{Timestamp: time.Now(), Tokens: record.TokenUsage{Input: 150_000 / 12}}
	}
	br := Estimate(records, 10*time.Minute, 0, 0, plan.Limits{TokenLimitUnlimited: true, CostLimitUnlimited: true})
	if br.TokensPerMinute <= 10_000 {
		t.Errorf("TokensPerMinute = %v, want > 10000", br.TokensPerMinute)
	}
}

func TestEstimate_ZeroRatesGiveInfiniteETA(t *testing.T) {
	records := []record.Record{
		{Timestamp: time.Now()},
		{Timestamp: time.Now()},
	}
	br := Estimate(records, DefaultWindow, 0, 0, plan.Limits{TokenLimit: 1000, CostLimit: 10})
	if !math.IsInf(br.EstimatedTimeToLimit, 1) {
		t.Errorf("expected infinite ETA when rates are zero, got %v", br.EstimatedTimeToLimit)
	}
}
