package sources

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/arvindn/genaicost/internal/analytics"
	"github.com/arvindn/genaicost/internal/pricing"
	"github.com/arvindn/genaicost/internal/record"
)

// rateLimitPattern matches a provider system message surfacing a rate
// or token limit, surfaced as a LimitEvent rather than a Record.
var rateLimitPattern = regexp.MustCompile(`(?i)rate limit.*opus|token limit reached`)

// usageLine is the JSON shape shared by both providers' log lines:
// nested message.usage.* takes precedence over flat top-level fields.
type usageLine struct {
	Timestamp string   `json:"timestamp"`
	Model     string   `json:"model"`
	MessageID string   `json:"message_id"`
	RequestID string   `json:"request_id"`
	Cost      *float64 `json:"cost"`
	CostUSD   *float64 `json:"costUSD"`

	InputTokens         *int64 `json:"input_tokens"`
	OutputTokens        *int64 `json:"output_tokens"`
	CacheCreationTokens *int64 `json:"cache_creation_tokens"`
	CacheReadTokens     *int64 `json:"cache_read_tokens"`

	Message *struct {
		Model string `json:"model"`
		Usage *struct {
			InputTokens              *int64 `json:"input_tokens"`
			OutputTokens             *int64 `json:"output_tokens"`
			CacheCreationInputTokens *int64 `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     *int64 `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`

	// SystemMessage carries a free-text notice line (e.g. a rate-limit
	// warning) when present in place of usage fields.
	SystemMessage string `json:"system_message"`
	Text          string `json:"text"`
}

// parseLine decodes one JSONL entry into a Record. ok is false when the
// line carried no usage fields and was not a recognized rate-limit
// notice; the caller should count it as skipped, not as an error.
func parseLine(provider record.Provider, raw []byte) (rec record.Record, limit *LimitEvent, ok bool, err error) {
	var line usageLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return record.Record{}, nil, false, fmt.Errorf("%w: %v", analytics.ErrParseError, err)
	}

	tokens, hasUsage := extractTokens(line)
	if !hasUsage {
		if notice := strings.TrimSpace(firstNonEmpty(line.SystemMessage, line.Text)); notice != "" && rateLimitPattern.MatchString(notice) {
			ts := parseTimestamp(line.Timestamp)
			return record.Record{}, &LimitEvent{Timestamp: ts, Message: notice}, false, nil
		}
		return record.Record{}, nil, false, nil
	}

	model := line.Model
	if line.Message != nil && strings.TrimSpace(line.Message.Model) != "" {
		model = line.Message.Model
	}
	normalized := pricing.NormalizeModel(model)

	cost, savings, priceErr := pricing.CostOf(model, tokens)
	if trusted := firstNonNilFloat(line.Cost, line.CostUSD); trusted != nil {
		cost = *trusted
	}

	rec = record.Record{
		Timestamp:    parseTimestamp(line.Timestamp),
		Model:        normalized,
		Tokens:       tokens,
		Cost:         cost,
		CacheSavings: savings,
		MessageID:    line.MessageID,
		RequestID:    line.RequestID,
		Provider:     provider,
		UnknownModel: priceErr != nil,
	}
	return rec, nil, true, nil
}

func extractTokens(line usageLine) (record.TokenUsage, bool) {
	if line.Message != nil && line.Message.Usage != nil {
		u := line.Message.Usage
		if u.InputTokens != nil || u.OutputTokens != nil || u.CacheCreationInputTokens != nil || u.CacheReadInputTokens != nil {
			return record.TokenUsage{
				Input:         deref(u.InputTokens),
				Output:        deref(u.OutputTokens),
				CacheCreation: deref(u.CacheCreationInputTokens),
				CacheRead:     deref(u.CacheReadInputTokens),
			}, true
		}
	}
	if line.InputTokens != nil || line.OutputTokens != nil || line.CacheCreationTokens != nil || line.CacheReadTokens != nil {
		return record.TokenUsage{
			Input:         deref(line.InputTokens),
			Output:        deref(line.OutputTokens),
			CacheCreation: deref(line.CacheCreationTokens),
			CacheRead:     deref(line.CacheReadTokens),
		}, true
	}
	return record.TokenUsage{}, false
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC()
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts.UTC()
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC()
	}
	return time.Now().UTC()
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func firstNonNilFloat(ps ...*float64) *float64 {
	for _, p := range ps {
		if p != nil {
			return p
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
