// Package aggregator folds Records into per-provider SessionBlocks and
// UsageStats projections over time windows.
package aggregator

import (
	"time"

	"github.com/arvindn/genaicost/internal/record"
)

// ClaudeBlockDuration is Claude's five-hour rolling session window.
const ClaudeBlockDuration = 5 * time.Hour

// CodexBlockDuration is Codex's twenty-four-hour rolling session window.
const CodexBlockDuration = 24 * time.Hour

// ModelStats aggregates token usage and cost for one model within a block.
type ModelStats struct {
	Tokens record.TokenUsage
	Cost   record.Money
}

// SessionBlock is a rolling window keyed by hour-floored start time,
// aggregating every Record whose timestamp fell within
// [StartTime, EndTime). Blocks are a cover, not a partition: overlapping
// blocks are allowed and a Record may belong to more than one.
type SessionBlock struct {
	ID            string // ISO-8601 of StartTime
	StartTime     time.Time
	EndTime       time.Time
	ActualEndTime time.Time // zero until the first record joins
	IsGap         bool
	Records       []record.Record
	PerModelStats map[string]ModelStats
}

// TotalTokens sums token usage across all models in the block.
func (b *SessionBlock) TotalTokens() int64 {
	var total int64
	for _, ms := range b.PerModelStats {
		total += ms.Tokens.Total()
	}
	return total
}

// TotalCost sums cost across all models in the block.
func (b *SessionBlock) TotalCost() record.Money {
	var total record.Money
	for _, ms := range b.PerModelStats {
		total += ms.Cost
	}
	return total
}

// isActiveAt reports whether the block is a non-gap block with at least
// one record and now falls before EndTime. It does not check that the
// block is the most recent non-gap block; Aggregator.ActiveBlock adds
// that check, since "most recent" requires the full block list.
func (b *SessionBlock) isActiveAt(now time.Time) bool {
	return !b.IsGap && len(b.Records) > 0 && now.Before(b.EndTime)
}

func floorToHour(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}

func blockDuration(provider record.Provider) time.Duration {
	if provider == record.ProviderCodex {
		return CodexBlockDuration
	}
	return ClaudeBlockDuration
}

func newBlock(start time.Time, duration time.Duration) *SessionBlock {
	return &SessionBlock{
		ID:            start.UTC().Format(time.RFC3339),
		StartTime:     start,
		EndTime:       start.Add(duration),
		PerModelStats: make(map[string]ModelStats),
	}
}

func newGapBlock(start, end time.Time) *SessionBlock {
	return &SessionBlock{
		ID:            start.UTC().Format(time.RFC3339),
		StartTime:     start,
		EndTime:       end,
		IsGap:         true,
		PerModelStats: make(map[string]ModelStats),
	}
}

// admit appends r to the block and updates its derived stats. Does not
// check whether r.Timestamp actually falls in [StartTime, EndTime);
// callers are responsible for that (see Aggregator.Admit).
func (b *SessionBlock) admit(r record.Record) {
	b.Records = append(b.Records, r)
	if b.ActualEndTime.IsZero() || r.Timestamp.After(b.ActualEndTime) {
		b.ActualEndTime = r.Timestamp
	}
	ms := b.PerModelStats[r.Model]
	ms.Tokens = ms.Tokens.Add(r.Tokens)
	ms.Cost += r.Cost
	b.PerModelStats[r.Model] = ms
}
