package sources

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arvindn/genaicost/internal/record"
)

const codexConfigDir = ".genai-code-usage-monitor"

// CodexSource tails the append-only usage log written by the monitored
// application's Codex integration. Schema matches the Claude source's,
// but the log never carries cache fields, so parsed tokens naturally
// have zero cache_creation/cache_read.
type CodexSource struct {
	path    string
	tail    *tailState
	watcher *dirWatcher
}

// NewCodexSource resolves $HOME/.genai-code-usage-monitor/usage_log.jsonl
// and starts watching its parent directory for changes.
func NewCodexSource() *CodexSource {
	home, _ := os.UserHomeDir()
	dir := filepath.Join(home, codexConfigDir)
	return &CodexSource{
		path:    filepath.Join(dir, "usage_log.jsonl"),
		tail:    newTailState(),
		watcher: newDirWatcher([]string{dir}),
	}
}

func (s *CodexSource) Provider() record.Provider { return record.ProviderCodex }

func (s *CodexSource) PullNewRecords() ([]record.Record, []LimitEvent, int, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, 0, nil
		}
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrSourceError, err)
	}

	lines, err := s.tail.readNewLines(s.path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrSourceError, err)
	}

	var records []record.Record
	var limits []LimitEvent
	skipped := 0

	for _, line := range lines {
		rec, limit, ok, err := parseLine(record.ProviderCodex, line)
		switch {
		case err != nil:
			skipped++
		case limit != nil:
			limits = append(limits, *limit)
		case ok:
			records = append(records, rec)
		default:
			skipped++
		}
	}

	return records, limits, skipped, nil
}

func (s *CodexSource) Changed() <-chan struct{} { return s.watcher.Changed() }

func (s *CodexSource) Close() error { return s.watcher.Close() }
