// Package sources implements the read-only log-tailing adapters that
// turn a provider's on-disk usage log into a stream of normalized
// record.Record values: one for Claude Code's JSONL conversation
// transcripts, one for Codex's append-only session log.
package sources

import (
	"time"

	"github.com/arvindn/genaicost/internal/analytics"
	"github.com/arvindn/genaicost/internal/record"
)

// ErrSourceError marks an unrecoverable directory or permission
// failure. The affected provider's feed goes stale; other providers
// keep ticking.
var ErrSourceError = analytics.ErrSourceError

// LimitEvent is a rate-limit system message observed in a provider's
// log stream, not yet attached to a SessionBlock.
type LimitEvent struct {
	Timestamp time.Time
	Message   string
}

// Source exposes the capability pull_new_records(since) for one
// provider's log. Implementations are idempotent across overlapping
// calls: the downstream dedup filter tolerates repeats.
type Source interface {
	Provider() record.Provider

	// PullNewRecords returns every Record and LimitEvent discovered
	// since the last call (or, on the very first call, everything
	// already in the log), plus the count of lines skipped for
	// diagnostics.
	PullNewRecords() (records []record.Record, limits []LimitEvent, skipped int, err error)

	// Changed returns a channel that receives a value whenever
	// fsnotify observes a write to a watched file. The driver can
	// select on it instead of blind polling. The channel is never
	// closed; after Close it simply receives nothing more.
	Changed() <-chan struct{}

	Close() error
}
