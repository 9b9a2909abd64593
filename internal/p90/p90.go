// Package p90 implements the P90 limit calculator, which feeds the
// "custom" plan's token limit.
package p90

import (
	"math"
	"sort"

	"github.com/arvindn/genaicost/internal/aggregator"
)

// KnownLimits are the token totals representing Claude's Pro/Max5/Max20
// tiers.
var KnownLimits = []int64{44_000, 88_000, 220_000}

// DefaultLimit is the floor applied to the computed P90.
const DefaultLimit int64 = 44_000

// Source identifies which path produced the Result.
type Source string

const (
	SourceKnownLimit Source = "known-limit"
	SourceFallback   Source = "fallback"
	SourceDefault    Source = "default"
)

// Result is the computed limit, its confidence, and which path
// produced it.
type Result struct {
	Limit      int64
	Confidence float64
	Source     Source
}

// Compute runs the P90 calculator over the given completed, non-gap
// blocks (already scoped to the analysis window by the caller).
func Compute(blocks []*aggregator.SessionBlock) Result {
	if len(blocks) == 0 {
		return Result{Limit: DefaultLimit, Confidence: 0, Source: SourceDefault}
	}

	totals := make([]int64, len(blocks))
	for i, b := range blocks {
		totals[i] = b.TotalTokens()
	}

	// Primary path: blocks whose total is >= 0.95 * some known limit.
	var primary []int64
	for _, total := range totals {
		for _, limit := range KnownLimits {
			if float64(total) >= 0.95*float64(limit) {
				primary = append(primary, total)
				break
			}
		}
	}

	if len(primary) >= 1 {
		return Result{
			Limit:      maxInt64(percentile90(primary), DefaultLimit),
			Confidence: confidence(len(primary)),
			Source:     SourceKnownLimit,
		}
	}

	// Fallback: P90 over all completed non-gap blocks.
	return Result{
		Limit:      maxInt64(percentile90(totals), DefaultLimit),
		Confidence: confidence(len(totals)),
		Source:     SourceFallback,
	}
}

// percentile90 sorts ascending and returns the value at index
// ceil(0.9*n) - 1, a formula chosen to be reproducible across
// implementations regardless of floating-point library differences.
func percentile90(values []int64) int64 {
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	n := len(sorted)
	idx := int(math.Ceil(0.9*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

func confidence(n int) float64 {
	c := float64(n) / 20.0
	if c > 1.0 {
		return 1.0
	}
	return c
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
