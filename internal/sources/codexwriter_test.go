package sources

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/arvindn/genaicost/internal/record"
)

func TestAppendCodexUsage_RoundTripsThroughSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "usage_log.jsonl")

	entries := []CodexUsageEntry{
		{Timestamp: "2026-01-01T00:00:00Z", Model: "gpt-4", InputTokens: 100, OutputTokens: 50, MessageID: "m1", RequestID: "r1"},
		{Timestamp: "2026-01-01T00:05:00Z", Model: "gpt-4-turbo", InputTokens: 300, OutputTokens: 120},
	}
	for _, e := range entries {
		if err := AppendCodexUsage(path, e); err != nil {
			t.Fatalf("AppendCodexUsage: %v", err)
		}
	}

	s := &CodexSource{path: path, tail: newTailState()}
	records, _, skipped, err := s.PullNewRecords()
	if err != nil {
		t.Fatalf("PullNewRecords: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].MessageID != "m1" || records[0].RequestID != "r1" {
		t.Errorf("dedup keys not preserved: %+v", records[0])
	}
	if records[1].Provider != record.ProviderCodex {
		t.Errorf("Provider = %v, want codex", records[1].Provider)
	}
}

func TestAppendCodexUsage_DefaultsTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_log.jsonl")
	if err := AppendCodexUsage(path, CodexUsageEntry{Model: "gpt-4", InputTokens: 1, OutputTokens: 1}); err != nil {
		t.Fatalf("AppendCodexUsage: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("expected one line")
	}
	rec, _, ok, err := parseLine(record.ProviderCodex, scanner.Bytes())
	if err != nil || !ok {
		t.Fatalf("parseLine: ok=%v err=%v", ok, err)
	}
	if rec.Timestamp.IsZero() {
		t.Error("timestamp should have been defaulted")
	}
}

func TestAppendCodexUsage_Rejections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage_log.jsonl")

	tests := []struct {
		name  string
		entry CodexUsageEntry
	}{
		{"missing model", CodexUsageEntry{InputTokens: 1}},
		{"negative input", CodexUsageEntry{Model: "gpt-4", InputTokens: -1}},
		{"negative output", CodexUsageEntry{Model: "gpt-4", OutputTokens: -5}},
		{"bad timestamp", CodexUsageEntry{Model: "gpt-4", Timestamp: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := AppendCodexUsage(path, tt.entry); err == nil {
				t.Error("expected rejection")
			}
		})
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("rejected entries must not create the log file")
	}
}
