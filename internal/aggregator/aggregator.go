package aggregator

import (
	"sort"
	"time"

	"github.com/arvindn/genaicost/internal/record"
	"github.com/samber/lo"
)

// DefaultAnalysisWindow is the default lookback for pruning and for P90 /
// stats projections (192h = 8 days).
const DefaultAnalysisWindow = 192 * time.Hour

// LimitEvent records a rate-limit system message observed in a
// provider's log stream.
type LimitEvent struct {
	Timestamp time.Time
	Message   string
	BlockID   string
}

// Aggregator owns one provider's SessionBlocks, limit-event sidecar, and
// analysis-window cutoff. Single-writer: owned exclusively by the
// driver task.
type Aggregator struct {
	Provider       record.Provider
	AnalysisWindow time.Duration

	blocks      []*SessionBlock
	limitEvents []LimitEvent

	// allRecords is a flat list, in admission order, of every
	// admitted Record exactly once (independent of how many blocks it
	// joined), used for window-based UsageStats/BurnRate projections
	// that must not double-count overlapping blocks.
	allRecords []record.Record
}

// New returns an empty Aggregator for the given provider with the default
// analysis window.
func New(provider record.Provider) *Aggregator {
	return &Aggregator{
		Provider:       provider,
		AnalysisWindow: DefaultAnalysisWindow,
		blocks:         nil,
	}
}

// Admit applies the block admission policy to r: it joins every
// existing non-gap block whose [StartTime, EndTime) contains
// r.Timestamp (overlapping sessions are allowed: a cover, not a
// partition), or opens a new block floored to the hour. Gap blocks are
// then recomputed.
func (a *Aggregator) Admit(r record.Record) {
	a.allRecords = append(a.allRecords, r)

	matched := false
	for _, b := range a.blocks {
		if b.IsGap {
			continue
		}
		if !b.StartTime.After(r.Timestamp) && r.Timestamp.Before(b.EndTime) {
			b.admit(r)
			matched = true
		}
	}

	if !matched {
		duration := blockDuration(a.Provider)
		start := floorToHour(r.Timestamp)
		nb := newBlock(start, duration)
		nb.admit(r)
		a.blocks = append(a.blocks, nb)
		a.sortBlocks()
	}

	a.regenerateGaps()
}

// RecordLimitEvent attaches a rate-limit system message to the current
// (most recently started, non-gap) block.
func (a *Aggregator) RecordLimitEvent(at time.Time, message string) {
	ev := LimitEvent{Timestamp: at, Message: message}
	if cur := a.currentBlockLocked(); cur != nil {
		ev.BlockID = cur.ID
	}
	a.limitEvents = append(a.limitEvents, ev)
}

// LimitEvents returns the sidecar list of observed rate-limit messages.
func (a *Aggregator) LimitEvents() []LimitEvent {
	out := make([]LimitEvent, len(a.limitEvents))
	copy(out, a.limitEvents)
	return out
}

// Blocks returns the chronologically ordered block list (gap and
// non-gap), for read-only inspection.
func (a *Aggregator) Blocks() []*SessionBlock {
	out := make([]*SessionBlock, len(a.blocks))
	copy(out, a.blocks)
	return out
}

// CompletedNonGapBlocks returns non-gap blocks that are not the
// currently active block, within the analysis window. This is the population
// the P90 calculator operates over.
func (a *Aggregator) CompletedNonGapBlocks() []*SessionBlock {
	active := a.ActiveBlock()
	return lo.Filter(a.blocks, func(b *SessionBlock, _ int) bool {
		return !b.IsGap && b != active
	})
}

// ActiveBlock returns the block that is currently active: the most
// recent non-gap block, if now is before its EndTime and it has at
// least one record.
func (a *Aggregator) ActiveBlock() *SessionBlock {
	return a.activeBlockAt(time.Now().UTC())
}

func (a *Aggregator) activeBlockAt(now time.Time) *SessionBlock {
	var mostRecent *SessionBlock
	for _, b := range a.blocks {
		if b.IsGap {
			continue
		}
		if mostRecent == nil || b.StartTime.After(mostRecent.StartTime) {
			mostRecent = b
		}
	}
	if mostRecent == nil || !mostRecent.isActiveAt(now) {
		return nil
	}
	return mostRecent
}

func (a *Aggregator) currentBlockLocked() *SessionBlock {
	var mostRecent *SessionBlock
	for _, b := range a.blocks {
		if b.IsGap {
			continue
		}
		if mostRecent == nil || b.StartTime.After(mostRecent.StartTime) {
			mostRecent = b
		}
	}
	return mostRecent
}

// Prune drops blocks whose EndTime is older than now - AnalysisWindow.
func (a *Aggregator) Prune(now time.Time) {
	cutoff := now.Add(-a.AnalysisWindow)
	a.blocks = lo.Filter(a.blocks, func(b *SessionBlock, _ int) bool {
		return !b.EndTime.Before(cutoff)
	})
	a.allRecords = lo.Filter(a.allRecords, func(r record.Record, _ int) bool {
		return !r.Timestamp.Before(cutoff)
	})
}

// RecordsSince returns, in admission order, every distinct admitted
// Record with Timestamp >= since.
func (a *Aggregator) RecordsSince(since time.Time) []record.Record {
	return lo.Filter(a.allRecords, func(r record.Record, _ int) bool {
		return !r.Timestamp.Before(since)
	})
}

// AllRecords returns every distinct admitted Record still within the
// analysis window, in admission order.
func (a *Aggregator) AllRecords() []record.Record {
	out := make([]record.Record, len(a.allRecords))
	copy(out, a.allRecords)
	return out
}

func (a *Aggregator) sortBlocks() {
	sort.Slice(a.blocks, func(i, j int) bool {
		return a.blocks[i].StartTime.Before(a.blocks[j].StartTime)
	})
}

// regenerateGaps drops all existing gap blocks and reinserts them
// between adjacent non-gap blocks whose separation exceeds one block
// duration.
func (a *Aggregator) regenerateGaps() {
	nonGap := lo.Filter(a.blocks, func(b *SessionBlock, _ int) bool { return !b.IsGap })
	sort.Slice(nonGap, func(i, j int) bool { return nonGap[i].StartTime.Before(nonGap[j].StartTime) })

	threshold := blockDuration(a.Provider)
	merged := make([]*SessionBlock, 0, len(nonGap)*2)
	for i, b := range nonGap {
		merged = append(merged, b)
		if i+1 >= len(nonGap) {
			continue
		}
		next := nonGap[i+1]
		if next.StartTime.Sub(b.EndTime) > threshold {
			merged = append(merged, newGapBlock(b.EndTime, next.StartTime))
		}
	}

	a.blocks = merged
	a.sortBlocks()
}
