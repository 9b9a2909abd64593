package aggregator

import (
	"testing"
	"time"

	"github.com/arvindn/genaicost/internal/record"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return tm
}

func rec(t *testing.T, ts string, tokens record.TokenUsage) record.Record {
	return record.Record{
		Timestamp: mustParse(t, ts),
		Model:     "claude-sonnet-4",
		Tokens:    tokens,
		Provider:  record.ProviderClaude,
	}
}

func TestBlockRollover_ThreeRecordsAcrossBoundary(t *testing.T) {
	// Records at 10:00, 12:30, 15:30. B1=[10:00,15:00) contains 10:00 and
	// 12:30; B2=[15:00,20:00) contains 15:30 only.
	a := New(record.ProviderClaude)
	a.Admit(rec(t, "2026-01-01T10:00:00Z", record.TokenUsage{Input: 1}))
	a.Admit(rec(t, "2026-01-01T12:30:00Z", record.TokenUsage{Input: 1}))
	a.Admit(rec(t, "2026-01-01T15:30:00Z", record.TokenUsage{Input: 1}))

	blocks := a.Blocks()
	nonGap := filterNonGap(blocks)
	if len(nonGap) != 2 {
		t.Fatalf("expected 2 non-gap blocks, got %d", len(nonGap))
	}
	b1, b2 := nonGap[0], nonGap[1]
	if len(b1.Records) != 2 {
		t.Errorf("B1 should have 2 records, got %d", len(b1.Records))
	}
	if len(b2.Records) != 1 {
		t.Errorf("B2 should have 1 record, got %d", len(b2.Records))
	}
	if !b1.EndTime.Equal(mustParse(t, "2026-01-01T15:00:00Z")) {
		t.Errorf("B1.EndTime = %v, want 15:00", b1.EndTime)
	}
}

func TestBoundaryRecordJoinsNewBlockNotPrevious(t *testing.T) {
	a := New(record.ProviderClaude)
	a.Admit(rec(t, "2026-01-01T10:00:00Z", record.TokenUsage{Input: 1}))
	// Exactly at the boundary t = start_time of the would-be-next block.
	a.Admit(rec(t, "2026-01-01T15:00:00Z", record.TokenUsage{Input: 1}))

	nonGap := filterNonGap(a.Blocks())
	if len(nonGap) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(nonGap))
	}
	if len(nonGap[0].Records) != 1 || len(nonGap[1].Records) != 1 {
		t.Fatalf("boundary record should join only the new block")
	}
}

func TestOverlappingBlocksRecordJoinsBoth(t *testing.T) {
	// A record landing inside two blocks' windows joins both, since
	// admission only requires the block's own window to already
	// contain the timestamp.
	a := New(record.ProviderClaude)
	a.Admit(rec(t, "2026-01-01T10:30:00Z", record.TokenUsage{Input: 1})) // opens B2 [10:00,15:00)
	a.Admit(rec(t, "2026-01-01T08:30:00Z", record.TokenUsage{Input: 1})) // before B2: opens B1 [08:00,13:00)
	a.Admit(rec(t, "2026-01-01T11:00:00Z", record.TokenUsage{Input: 1})) // inside both windows

	nonGap := filterNonGap(a.Blocks())
	if len(nonGap) != 2 {
		t.Fatalf("expected two overlapping blocks, got %d", len(nonGap))
	}
	if len(nonGap[0].Records) != 2 || len(nonGap[1].Records) != 2 {
		t.Fatalf("expected the 11:00 record in both blocks, got %d and %d records", len(nonGap[0].Records), len(nonGap[1].Records))
	}
}

func TestGapInsertion(t *testing.T) {
	a := New(record.ProviderClaude)
	a.Admit(rec(t, "2026-01-01T00:00:00Z", record.TokenUsage{Input: 1})) // B1 [00:00,05:00)
	a.Admit(rec(t, "2026-01-02T00:00:00Z", record.TokenUsage{Input: 1})) // B2 [00:00 Jan2, 05:00)

	blocks := a.Blocks()
	var gaps []*SessionBlock
	for _, b := range blocks {
		if b.IsGap {
			gaps = append(gaps, b)
		}
	}
	if len(gaps) != 1 {
		t.Fatalf("expected exactly one gap block, got %d", len(gaps))
	}
	gap := gaps[0]
	if !gap.StartTime.Equal(mustParse(t, "2026-01-01T05:00:00Z")) {
		t.Errorf("gap start = %v, want 05:00 Jan1", gap.StartTime)
	}
	if !gap.EndTime.Equal(mustParse(t, "2026-01-02T00:00:00Z")) {
		t.Errorf("gap end = %v, want 00:00 Jan2", gap.EndTime)
	}
}

func TestNoGapWhenContiguous(t *testing.T) {
	a := New(record.ProviderClaude)
	a.Admit(rec(t, "2026-01-01T10:00:00Z", record.TokenUsage{Input: 1}))
	a.Admit(rec(t, "2026-01-01T15:30:00Z", record.TokenUsage{Input: 1})) // exactly contiguous rollover

	for _, b := range a.Blocks() {
		if b.IsGap {
			t.Fatalf("expected no gap block for contiguous blocks, found one: %+v", b)
		}
	}
}

func TestPruneDropsOldBlocks(t *testing.T) {
	a := New(record.ProviderClaude)
	a.AnalysisWindow = 48 * time.Hour
	a.Admit(rec(t, "2026-01-01T00:00:00Z", record.TokenUsage{Input: 1}))
	now := mustParse(t, "2026-01-10T00:00:00Z")
	a.Prune(now)

	if len(a.Blocks()) != 0 {
		t.Fatalf("expected all blocks pruned, got %d", len(a.Blocks()))
	}
	if len(a.AllRecords()) != 0 {
		t.Fatalf("expected all records pruned, got %d", len(a.AllRecords()))
	}
}

func TestActiveBlock(t *testing.T) {
	a := New(record.ProviderClaude)
	start := time.Now().UTC().Add(-1 * time.Hour)
	a.Admit(record.Record{Timestamp: start, Model: "claude-sonnet-4", Tokens: record.TokenUsage{Input: 1}, Provider: record.ProviderClaude})

	active := a.ActiveBlock()
	if active == nil {
		t.Fatal("expected an active block")
	}
}

func filterNonGap(blocks []*SessionBlock) []*SessionBlock {
	var out []*SessionBlock
	for _, b := range blocks {
		if !b.IsGap {
			out = append(out, b)
		}
	}
	return out
}
