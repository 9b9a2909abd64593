package store

import (
	"context"
	"fmt"

	"github.com/arvindn/genaicost/internal/record"
)

// Stats summarizes the mirror for the telemetry stats subcommand.
type Stats struct {
	TotalRecords  int64
	ByProvider    map[record.Provider]int64
	UnknownModels int64
	OldestRecord  string
	NewestRecord  string
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if s == nil || s.db == nil {
		return Stats{}, fmt.Errorf("store: not initialized")
	}
	stats := Stats{ByProvider: make(map[record.Provider]int64)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_records`).Scan(&stats.TotalRecords); err != nil {
		return Stats{}, fmt.Errorf("store: count records: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_records WHERE unknown_model = 1`).Scan(&stats.UnknownModels); err != nil {
		return Stats{}, fmt.Errorf("store: count unknown models: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT provider, COUNT(*) FROM usage_records GROUP BY provider`)
	if err != nil {
		return Stats{}, fmt.Errorf("store: count by provider: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var provider string
		var n int64
		if err := rows.Scan(&provider, &n); err != nil {
			return Stats{}, fmt.Errorf("store: scan provider count: %w", err)
		}
		stats.ByProvider[record.Provider(provider)] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	if stats.TotalRecords > 0 {
		err := s.db.QueryRowContext(ctx,
			`SELECT MIN(occurred_at), MAX(occurred_at) FROM usage_records`,
		).Scan(&stats.OldestRecord, &stats.NewestRecord)
		if err != nil {
			return Stats{}, fmt.Errorf("store: record range: %w", err)
		}
	}

	return stats, nil
}
