// Package pricing implements the static per-model price table, the
// model-name normalization rules, and the cost arithmetic derived
// from them.
package pricing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/arvindn/genaicost/internal/analytics"
)

// Rates is the per-1,000,000-token USD price vector for one model family.
type Rates struct {
	Input         float64
	Output        float64
	CacheCreation float64
	CacheRead     float64
}

// DefaultModel is the conservative fallback entry used for unrecognized
// model names. It deliberately uses Sonnet's rates: over-estimating
// cost on an unknown model is safer than under-estimating it.
const DefaultModel = "default"

// table is keyed by normalized model family name. Exact published
// rates; do not round.
var table = map[string]Rates{
	"claude-sonnet": {Input: 3.00, Output: 15.00, CacheCreation: 3.75, CacheRead: 0.30},
	"claude-opus":   {Input: 15.00, Output: 75.00, CacheCreation: 18.75, CacheRead: 1.50},
	"claude-haiku":  {Input: 0.25, Output: 1.25, CacheCreation: 0.3125, CacheRead: 0.025},
	"gpt-4":         {Input: 30.00, Output: 60.00},
	"gpt-4-turbo":   {Input: 10.00, Output: 30.00},
	"gpt-3.5-turbo": {Input: 0.50, Output: 1.50},
	DefaultModel:    {Input: 3.00, Output: 15.00, CacheCreation: 3.75, CacheRead: 0.30},
}

// dateSuffix matches a provider date suffix like "-20250514" or "-2025-05-14".
var dateSuffix = regexp.MustCompile(`-(\d{4})-?(\d{2})-?(\d{2})$`)

// NormalizeModel strips a trailing provider date suffix, lower-cases the
// name, and collapses version dots, returning the normalized family key
// used to look up Rates. Deterministic and pure.
func NormalizeModel(raw string) string {
	m := strings.ToLower(strings.TrimSpace(raw))
	m = dateSuffix.ReplaceAllString(m, "")
	m = strings.ReplaceAll(m, ".", "")

	switch {
	case strings.HasPrefix(m, "claude-sonnet"), strings.Contains(m, "claude") && strings.Contains(m, "sonnet"):
		return "claude-sonnet"
	case strings.HasPrefix(m, "claude-opus"), strings.Contains(m, "claude") && strings.Contains(m, "opus"):
		return "claude-opus"
	case strings.HasPrefix(m, "claude-haiku"), strings.Contains(m, "claude") && strings.Contains(m, "haiku"):
		return "claude-haiku"
	case m == "gpt-4-turbo", strings.HasPrefix(m, "gpt-4-turbo"):
		return "gpt-4-turbo"
	case m == "gpt-35-turbo", strings.HasPrefix(m, "gpt-35-turbo"), strings.HasPrefix(m, "gpt-3-5-turbo"):
		return "gpt-3.5-turbo"
	case m == "gpt-4", strings.HasPrefix(m, "gpt-4"):
		return "gpt-4"
	default:
		return DefaultModel
	}
}

// Lookup returns the Rates for a raw model name. When the name is not
// recognized it returns the DefaultModel rates together with an error
// wrapping analytics.ErrUnknownModel; the rates are still usable, the
// error only signals the fallback.
func Lookup(rawModel string) (Rates, error) {
	key := NormalizeModel(rawModel)
	if key == DefaultModel {
		return table[DefaultModel], fmt.Errorf("%w: %q priced at default (sonnet) rates", analytics.ErrUnknownModel, rawModel)
	}
	return table[key], nil
}
