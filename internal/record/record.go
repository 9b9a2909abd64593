// Package record defines the normalized per-call usage event that flows
// from the provider-specific ingestion adapters through dedup, aggregation,
// and alerting.
package record

import (
	"time"

	"github.com/arvindn/genaicost/internal/analytics"
)

// Provider identifies which upstream AI API a Record came from.
type Provider string

const (
	ProviderCodex  Provider = "codex"
	ProviderClaude Provider = "claude"
)

// TokenUsage is an immutable four-tuple of non-negative token counts.
type TokenUsage struct {
	Input         int64
	Output        int64
	CacheCreation int64
	CacheRead     int64
}

// Total returns input + output + cache_creation + cache_read.
func (t TokenUsage) Total() int64 {
	return t.Input + t.Output + t.CacheCreation + t.CacheRead
}

// Add returns the element-wise sum of two TokenUsage values.
func (t TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		Input:         t.Input + o.Input,
		Output:        t.Output + o.Output,
		CacheCreation: t.CacheCreation + o.CacheCreation,
		CacheRead:     t.CacheRead + o.CacheRead,
	}
}

// Money is USD, represented as a float64 carried at 1e-6 tolerance.
type Money = float64

// Record is a normalized per-call usage event. Immutable once accepted
// by the dedup filter.
type Record struct {
	Timestamp time.Time
	Model     string // normalized model name
	Tokens    TokenUsage
	Cost      Money
	MessageID string
	RequestID string
	Provider  Provider

	// CacheSavings is the counterfactual savings from cache reads,
	// computed alongside Cost (see pricing.CostOf).
	CacheSavings Money

	// UnknownModel is true when Model fell back to the pricing table's
	// default entry because the raw model name was not recognized.
	UnknownModel bool
}

// Validate enforces the non-negative token invariant.
func (r Record) Validate() error {
	if r.Tokens.Input < 0 || r.Tokens.Output < 0 || r.Tokens.CacheCreation < 0 || r.Tokens.CacheRead < 0 {
		return analytics.ErrInvalidRecord
	}
	return nil
}

// DedupKey returns the (message_id, request_id) pair used by the
// deduplication filter. A Record with both fields empty is never
// considered a duplicate of anything (see dedup package).
func (r Record) DedupKey() (string, string) {
	return r.MessageID, r.RequestID
}
