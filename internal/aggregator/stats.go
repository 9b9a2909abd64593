package aggregator

import (
	"time"

	"github.com/arvindn/genaicost/internal/record"
)

// UsageStats is a per-provider, per-window aggregate. Always derived on
// demand; never persisted.
type UsageStats struct {
	Tokens       record.TokenUsage
	Cost         record.Money
	CallCount    int
	CacheSavings record.Money
}

// CacheHitRate is cache_read / (input + cache_read), or 0 if the
// denominator is 0.
func (s UsageStats) CacheHitRate() float64 {
	denom := float64(s.Tokens.Input + s.Tokens.CacheRead)
	if denom == 0 {
		return 0
	}
	return float64(s.Tokens.CacheRead) / denom
}

// Stats computes UsageStats directly from Records, using each Record's
// own precomputed Cost/CacheSavings fields (set at ingestion time by the
// pricing package).
func Stats(records []record.Record) UsageStats {
	var s UsageStats
	for _, r := range records {
		s.Tokens = s.Tokens.Add(r.Tokens)
		s.Cost += r.Cost
		s.CacheSavings += r.CacheSavings
		s.CallCount++
	}
	return s
}

// Named window projections used by the dashboard's summary panels.
const (
	Window24h  = 24 * time.Hour
	Window168h = 168 * time.Hour
	Window720h = 720 * time.Hour
)

// StatsLast returns UsageStats over the trailing window ending at now.
func (a *Aggregator) StatsLast(window time.Duration, now time.Time) UsageStats {
	return Stats(a.RecordsSince(now.Add(-window)))
}

// StatsDaily returns UsageStats for the daily bucket containing now:
// from the most recent roll up to (excluding) the next one. The bucket
// resets at resetHour (0-23), evaluated in UTC like everything else
// internal.
func (a *Aggregator) StatsDaily(resetHour int, now time.Time) UsageStats {
	roll := time.Date(now.Year(), now.Month(), now.Day(), resetHour, 0, 0, 0, time.UTC)
	if roll.After(now) {
		roll = roll.AddDate(0, 0, -1)
	}
	next := roll.AddDate(0, 0, 1)
	var inBucket []record.Record
	for _, r := range a.RecordsSince(roll) {
		if r.Timestamp.Before(next) {
			inBucket = append(inBucket, r)
		}
	}
	return Stats(inBucket)
}

// StatsCurrentBlock returns UsageStats for the currently active block, or
// the zero value if there is no active block.
func (a *Aggregator) StatsCurrentBlock() UsageStats {
	b := a.ActiveBlock()
	if b == nil {
		return UsageStats{}
	}
	return Stats(b.Records)
}

// StatsWindowTotal returns UsageStats over every record still within the
// analysis window.
func (a *Aggregator) StatsWindowTotal() UsageStats {
	return Stats(a.AllRecords())
}
