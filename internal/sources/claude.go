package sources

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arvindn/genaicost/internal/record"
)

// ClaudeSource tails Claude Code's JSONL conversation transcripts.
type ClaudeSource struct {
	root    string
	tail    *tailState
	watcher *dirWatcher
}

// NewClaudeSource resolves the projects root with precedence
// CLAUDE_CONFIG_DIR > $HOME/.config/claude/projects > $HOME/.claude/projects
// and starts watching it for changes.
func NewClaudeSource() *ClaudeSource {
	root := ClaudeProjectsRoot()
	return &ClaudeSource{
		root:    root,
		tail:    newTailState(),
		watcher: newDirWatcher([]string{root}),
	}
}

// ClaudeProjectsRoot resolves the Claude transcripts directory; the CLI
// also consults it at startup to fail fast when the selected platform
// has no logs to read.
func ClaudeProjectsRoot() string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "projects")
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return ""
	}
	if info, err := os.Stat(filepath.Join(home, ".config", "claude", "projects")); err == nil && info.IsDir() {
		return filepath.Join(home, ".config", "claude", "projects")
	}
	return filepath.Join(home, ".claude", "projects")
}

func (s *ClaudeSource) Provider() record.Provider { return record.ProviderClaude }

func (s *ClaudeSource) PullNewRecords() ([]record.Record, []LimitEvent, int, error) {
	if s.root == "" {
		return nil, nil, 0, fmt.Errorf("%w: no claude projects directory resolved", ErrSourceError)
	}

	files, err := discoverJSONL(s.root)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrSourceError, err)
	}

	var records []record.Record
	var limits []LimitEvent
	skipped := 0

	for _, path := range files {
		lines, err := s.tail.readNewLines(path)
		if err != nil {
			continue
		}
		for _, line := range lines {
			rec, limit, ok, err := parseLine(record.ProviderClaude, line)
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
	}

	return records, limits, skipped, nil
}

func (s *ClaudeSource) Changed() <-chan struct{} { return s.watcher.Changed() }

func (s *ClaudeSource) Close() error { return s.watcher.Close() }

func discoverJSONL(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() && filepath.Ext(path) == ".jsonl" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
