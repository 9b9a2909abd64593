package sources

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTailState_ReadsOnlyAppendedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.jsonl")
	if err := os.WriteFile(path, []byte("line1\nline2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ts := newTailState()
	first, err := ts.readNewLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(first))
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("line3\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	second, err := ts.readNewLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 || string(second[0]) != "line3" {
		t.Fatalf("expected only the appended line, got %v", second)
	}
}

func TestTailState_TruncationResetsToStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.jsonl")
	if err := os.WriteFile(path, []byte("line1\nline2\nline3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ts := newTailState()
	if _, err := ts.readNewLines(path); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("new1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := ts.readNewLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || string(lines[0]) != "new1" {
		t.Fatalf("expected truncation to reset to start, got %v", lines)
	}
}
