// Package monitor runs the per-tick pipeline that turns raw source pulls
// into a MultiPlatformState snapshot the UI layer reads lock-free.
package monitor

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/arvindn/genaicost/internal/aggregator"
	"github.com/arvindn/genaicost/internal/alerts"
	"github.com/arvindn/genaicost/internal/burnrate"
	"github.com/arvindn/genaicost/internal/dedup"
	"github.com/arvindn/genaicost/internal/p90"
	"github.com/arvindn/genaicost/internal/plan"
	"github.com/arvindn/genaicost/internal/record"
	"github.com/arvindn/genaicost/internal/sources"
)

// MonitorState is one provider's fully assembled dashboard snapshot for a
// single tick.
type MonitorState struct {
	Provider record.Provider
	Plan     plan.Limits

	CurrentBlock aggregator.UsageStats
	Daily        aggregator.UsageStats
	Last24h      aggregator.UsageStats
	Last7d       aggregator.UsageStats
	Last30d      aggregator.UsageStats
	WindowTotal  aggregator.UsageStats

	BurnRate burnrate.BurnRate
	P90      p90.Result // zero value unless Plan.Name == plan.Custom

	Alerts             []alerts.Alert
	ShouldResetSession bool
	ResetReason        string
	HealthScore        float64

	SourceHealthy        bool
	SkippedLinesLastTick int

	// ParseDropRateHigh is set when more than 10% of the lines seen
	// this tick failed to parse; below that, drops stay silent.
	ParseDropRateHigh  bool
	LastSuccessfulPull time.Time
}

// MultiPlatformState is the read-copy-update snapshot published once per
// tick and read by the UI without locking.
type MultiPlatformState struct {
	Generated time.Time
	Platforms map[record.Provider]MonitorState
}

// TotalCost sums window-total cost across present platforms.
func (s *MultiPlatformState) TotalCost() float64 {
	var total float64
	for _, state := range s.Platforms {
		total += state.WindowTotal.Cost
	}
	return total
}

// TotalTokens sums window-total tokens across present platforms.
func (s *MultiPlatformState) TotalTokens() int64 {
	var total int64
	for _, state := range s.Platforms {
		total += state.WindowTotal.Tokens.Total()
	}
	return total
}

// RecordSink receives the records accepted by dedup each tick, for
// mirroring into durable storage. A nil sink disables mirroring.
type RecordSink interface {
	Insert(ctx context.Context, records []record.Record) error
}

// ProviderConfig configures one provider's pipeline for the driver.
type ProviderConfig struct {
	Provider record.Provider
	Source   sources.Source
	Limits   plan.Limits
	Sink     RecordSink
}

type providerState struct {
	provider record.Provider
	source   sources.Source
	dedup    *dedup.Filter
	agg      *aggregator.Aggregator
	limits   plan.Limits
	sink     RecordSink

	// customTokenOverride pins a user-supplied token limit on the
	// custom plan, so the P90 recompute only fills the limit in when
	// the user left it unset.
	customTokenOverride bool

	sourceHealthy      bool
	lastSuccessfulPull time.Time
	lastP90            p90.Result

	// loggedUnknownModels keeps the unknown-model diagnostic to one
	// log line per unique model name.
	loggedUnknownModels map[string]struct{}
}

// Driver owns every provider's dedup filter and Aggregator and executes
// the per-tick pipeline: pull, dedup, admit, prune, P90, burn rate,
// alerts, publish. Single-writer; the snapshot pointer is the only state
// the UI task touches.
type Driver struct {
	providers  []*providerState
	tickPeriod time.Duration
	snapshot   atomic.Pointer[MultiPlatformState]

	// ResetHour is the hour of day (0-23) at which the Daily stats
	// bucket rolls. Set before Run; zero means midnight UTC.
	ResetHour int
}

// NewDriver returns a Driver for the given providers, ticking at
// tickPeriod.
func NewDriver(tickPeriod time.Duration, configs ...ProviderConfig) *Driver {
	d := &Driver{tickPeriod: tickPeriod}
	for _, c := range configs {
		d.providers = append(d.providers, &providerState{
			provider: c.Provider,
			source:   c.Source,
			dedup:    dedup.NewFilter(),
			agg:      aggregator.New(c.Provider),
			limits:   c.Limits,
			sink:     c.Sink,

			customTokenOverride: c.Limits.Name == plan.Custom && c.Limits.TokenLimit > 0,
			loggedUnknownModels: make(map[string]struct{}),
		})
	}
	return d
}

// Seed feeds previously mirrored records through a provider's dedup
// filter and aggregator before the first tick, so a restarted process
// does not start its stats at zero. Records the next source pull
// re-delivers are absorbed by dedup.
func (d *Driver) Seed(provider record.Provider, records []record.Record) {
	for _, ps := range d.providers {
		if ps.provider != provider {
			continue
		}
		for _, r := range records {
			if r.Validate() != nil || !ps.dedup.Accept(r) {
				continue
			}
			ps.agg.Admit(r)
		}
		return
	}
}

// Snapshot returns the most recently published MultiPlatformState, or nil
// before the first tick.
func (d *Driver) Snapshot() *MultiPlatformState {
	return d.snapshot.Load()
}

// Run executes one tick immediately, then ticks until ctx is cancelled:
// on every tickPeriod fire, and early whenever a source's fsnotify
// watcher reports a log write, so fresh usage lands in the snapshot
// without waiting out the full period. If a tick is still assembling
// when the next ticker fire arrives, that fire is simply consumed on
// the next loop iteration (time.Ticker drops unread ticks), so ticks
// never pile up.
func (d *Driver) Run(ctx context.Context) {
	d.Tick(ctx)

	wake := d.mergeSourceChanges(ctx)

	ticker := time.NewTicker(d.tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("monitor: context cancelled, stopping driver loop")
			return
		case <-ticker.C:
			d.Tick(ctx)
		case <-wake:
			d.Tick(ctx)
			ticker.Reset(d.tickPeriod)
		}
	}
}

// mergeSourceChanges fans every provider's Changed channel into one
// wake channel with a single-slot buffer, coalescing write bursts into
// at most one pending early tick.
func (d *Driver) mergeSourceChanges(ctx context.Context) <-chan struct{} {
	wake := make(chan struct{}, 1)
	for _, ps := range d.providers {
		ch := ps.source.Changed()
		if ch == nil {
			continue
		}
		go func(ch <-chan struct{}) {
			for {
				select {
				case _, ok := <-ch:
					if !ok {
						return
					}
					select {
					case wake <- struct{}{}:
					default:
					}
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}
	return wake
}

// Close closes every provider's Source.
func (d *Driver) Close() error {
	var firstErr error
	for _, ps := range d.providers {
		if err := ps.source.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Tick runs one pass of the per-provider pipeline and atomically
// publishes the resulting MultiPlatformState.
func (d *Driver) Tick(ctx context.Context) *MultiPlatformState {
	now := time.Now().UTC()
	platforms := make(map[record.Provider]MonitorState, len(d.providers))

	for _, ps := range d.providers {
		select {
		case <-ctx.Done():
			return d.snapshot.Load()
		default:
		}

		platforms[ps.provider] = d.tickProvider(ps, now)
	}

	snap := &MultiPlatformState{Generated: now, Platforms: platforms}
	d.snapshot.Store(snap)
	return snap
}

func (d *Driver) tickProvider(ps *providerState, now time.Time) MonitorState {
	recs, limitEvents, skipped, err := d.pullWithDeadline(ps, d.tickPeriod/2)
	if err != nil {
		ps.sourceHealthy = false
		log.Printf("monitor: %s source error: %v", ps.provider, err)
	} else {
		ps.sourceHealthy = true
		ps.lastSuccessfulPull = now
	}

	for _, le := range limitEvents {
		ps.agg.RecordLimitEvent(le.Timestamp, le.Message)
	}

	var accepted []record.Record
	for _, r := range recs {
		if err := r.Validate(); err != nil {
			skipped++
			continue
		}
		if !ps.dedup.Accept(r) {
			continue
		}
		if r.UnknownModel {
			if _, logged := ps.loggedUnknownModels[r.Model]; !logged {
				ps.loggedUnknownModels[r.Model] = struct{}{}
				log.Printf("monitor: %s: unknown model %q priced at default rates", ps.provider, r.Model)
			}
		}
		ps.agg.Admit(r)
		accepted = append(accepted, r)
	}

	if ps.sink != nil && len(accepted) > 0 {
		if err := ps.sink.Insert(context.Background(), accepted); err != nil {
			log.Printf("monitor: %s mirror insert failed: %v", ps.provider, err)
		}
	}

	ps.agg.Prune(now)

	if ps.limits.Name == plan.Custom {
		ps.lastP90 = p90.Compute(ps.agg.CompletedNonGapBlocks())
		if !ps.customTokenOverride {
			ps.limits.TokenLimit = ps.lastP90.Limit
		}
	}

	currentBlock := ps.agg.StatsCurrentBlock()
	rate := burnrate.Estimate(
		ps.agg.RecordsSince(now.Add(-burnrate.DefaultWindow)),
		burnrate.DefaultWindow,
		currentBlock.Tokens.Total(),
		currentBlock.Cost,
		ps.limits,
	)
	active := alerts.Evaluate(currentBlock, rate, ps.limits, now)
	shouldReset, reason := alerts.ShouldResetSession(active)
	pctTokens, pctCost := percentOf(currentBlock, ps.limits)

	return MonitorState{
		Provider:             ps.provider,
		Plan:                 ps.limits,
		CurrentBlock:         currentBlock,
		Daily:                ps.agg.StatsDaily(d.ResetHour, now),
		Last24h:              ps.agg.StatsLast(aggregator.Window24h, now),
		Last7d:               ps.agg.StatsLast(aggregator.Window168h, now),
		Last30d:              ps.agg.StatsLast(aggregator.Window720h, now),
		WindowTotal:          ps.agg.StatsWindowTotal(),
		BurnRate:             rate,
		P90:                  ps.lastP90,
		Alerts:               active,
		ShouldResetSession:   shouldReset,
		ResetReason:          reason,
		HealthScore:          alerts.SessionHealthScore(pctTokens, pctCost, active),
		SourceHealthy:        ps.sourceHealthy,
		SkippedLinesLastTick: skipped,
		ParseDropRateHigh:    skipped > 0 && float64(skipped) > 0.10*float64(len(recs)+skipped),
		LastSuccessfulPull:   ps.lastSuccessfulPull,
	}
}

type pullResult struct {
	records []record.Record
	limits  []sources.LimitEvent
	skipped int
	err     error
}

// pullWithDeadline bounds a source pull to a soft deadline. Source.PullNewRecords
// takes no context, so a timed-out pull's goroutine is abandoned rather than
// cancelled; its result is discarded and dedup absorbs the retry next tick.
func (d *Driver) pullWithDeadline(ps *providerState, deadline time.Duration) ([]record.Record, []sources.LimitEvent, int, error) {
	ch := make(chan pullResult, 1)
	go func() {
		records, limits, skipped, err := ps.source.PullNewRecords()
		ch <- pullResult{records, limits, skipped, err}
	}()

	select {
	case r := <-ch:
		return r.records, r.limits, r.skipped, r.err
	case <-time.After(deadline):
		return nil, nil, 0, fmt.Errorf("%w: pull exceeded soft deadline", sources.ErrSourceError)
	}
}

func percentOf(stats aggregator.UsageStats, limits plan.Limits) (pctTokens, pctCost float64) {
	if !limits.TokenLimitUnlimited && limits.TokenLimit > 0 {
		pctTokens = 100 * float64(stats.Tokens.Total()) / float64(limits.TokenLimit)
	}
	if !limits.CostLimitUnlimited && limits.CostLimit > 0 {
		pctCost = 100 * stats.Cost / limits.CostLimit
	}
	return pctTokens, pctCost
}
