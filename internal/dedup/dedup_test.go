package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/arvindn/genaicost/internal/record"
)

func mkRecord(msgID, reqID string, provider record.Provider) record.Record {
	return record.Record{
		Timestamp: time.Now(),
		Model:     "claude-sonnet-4",
		MessageID: msgID,
		RequestID: reqID,
		Provider:  provider,
	}
}

func TestAccept_EmptyKeysAlwaysAccepted(t *testing.T) {
	f := NewFilter()
	r := mkRecord("", "", record.ProviderClaude)
	if !f.Accept(r) {
		t.Fatal("expected first accept of empty-key record")
	}
	if !f.Accept(r) {
		t.Fatal("expected second accept of empty-key record too: no dedup key means never a duplicate")
	}
}

func TestAccept_DuplicatePairDropped(t *testing.T) {
	f := NewFilter()
	r1 := mkRecord("m1", "r1", record.ProviderClaude)
	r2 := mkRecord("m1", "r1", record.ProviderClaude)
	if !f.Accept(r1) {
		t.Fatal("expected first occurrence accepted")
	}
	if f.Accept(r2) {
		t.Fatal("expected duplicate occurrence dropped")
	}
}

func TestAccept_ScopedPerProvider(t *testing.T) {
	f := NewFilter()
	claude := mkRecord("m1", "r1", record.ProviderClaude)
	codex := mkRecord("m1", "r1", record.ProviderCodex)
	if !f.Accept(claude) {
		t.Fatal("expected claude record accepted")
	}
	if !f.Accept(codex) {
		t.Fatal("expected codex record with same ids accepted: dedup is scoped per provider")
	}
}

func TestAccept_BoundedEviction(t *testing.T) {
	f := NewFilter()
	for i := 0; i < MaxEntries+10; i++ {
		r := mkRecord(fmt.Sprintf("m%d", i), fmt.Sprintf("r%d", i), record.ProviderClaude)
		f.Accept(r)
	}
	if f.Len() > MaxEntries {
		t.Fatalf("expected len <= %d after eviction, got %d", MaxEntries, f.Len())
	}

	// The most recently inserted entries must still be present (oldest
	// half evicted, not newest).
	recent := mkRecord(fmt.Sprintf("m%d", MaxEntries+9), fmt.Sprintf("r%d", MaxEntries+9), record.ProviderClaude)
	if f.Accept(recent) {
		t.Fatal("expected the most recent entry to still be tracked as a duplicate")
	}
}

func TestDedupIdempotence(t *testing.T) {
	// Processing a stream twice must yield the same accepted set as
	// processing it once.
	stream := []record.Record{
		mkRecord("m1", "r1", record.ProviderClaude),
		mkRecord("m2", "r2", record.ProviderClaude),
		mkRecord("m1", "r1", record.ProviderClaude),
	}

	f := NewFilter()
	var acceptedOnce []record.Record
	for _, r := range stream {
		if f.Accept(r) {
			acceptedOnce = append(acceptedOnce, r)
		}
	}

	f2 := NewFilter()
	var acceptedTwice []record.Record
	for _, r := range append(stream, stream...) {
		if f2.Accept(r) {
			acceptedTwice = append(acceptedTwice, r)
		}
	}

	if len(acceptedOnce) != len(acceptedTwice) {
		t.Fatalf("accepted count differs: once=%d twice=%d", len(acceptedOnce), len(acceptedTwice))
	}
}
