// Package analytics holds the sentinel error taxonomy shared across
// the cost-tracking pipeline's components.
package analytics

import "errors"

var (
	// ErrSourceError marks a directory/permission/I-O failure in a source
	// adapter. Surfaced to the UI via a banner; the affected provider's
	// stats become stale but other providers continue.
	ErrSourceError = errors.New("analytics: source error")

	// ErrParseError marks a single malformed log line or a missing
	// required field. The record is dropped; it never stops the driver.
	ErrParseError = errors.New("analytics: parse error")

	// ErrInvalidRecord marks negative token counts or an unknown provider.
	ErrInvalidRecord = errors.New("analytics: invalid record")

	// ErrUnknownModel marks a model name with no pricing table entry;
	// triggers the default pricing fallback, logged once per model.
	ErrUnknownModel = errors.New("analytics: unknown model")

	// ErrConfigError marks a bad CLI/config combination. Reported before
	// the driver starts; the process exits with code 1.
	ErrConfigError = errors.New("analytics: config error")
)
