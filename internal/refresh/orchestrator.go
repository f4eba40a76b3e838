// Package refresh runs the fetch → persist → enrich → persist cycle for the current day.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/bigorder/internal/contracts"
	"github.com/wonny/bigorder/internal/external/eastmoney"
	"github.com/wonny/bigorder/internal/market"
	"github.com/wonny/bigorder/pkg/logger"
)

// MaxWorkers caps concurrent enrichment fetches
const MaxWorkers = 10

// AlertFeed supplies the raw intraday alert rows
type AlertFeed interface {
	FetchLargeBuyAlerts(ctx context.Context) ([]eastmoney.FeedRow, error)
}

// Enricher builds one enrichment record per symbol
type Enricher interface {
	Enrich(ctx context.Context, ref contracts.StockRef) (*contracts.Enrichment, error)
}

// Store is the partition surface a refresh writes to
type Store interface {
	ReplaceAlerts(ctx context.Context, date time.Time, alerts []contracts.Alert) error
	DistinctSymbols(ctx context.Context, date time.Time) ([]contracts.StockRef, error)
	ReplaceEnrichment(ctx context.Context, date time.Time, records []contracts.Enrichment) error
}

// Config holds orchestrator configuration
type Config struct {
	Workers  int // upper bound; the pool never exceeds MaxWorkers or the symbol count
	Location *time.Location
}

// Orchestrator serializes refresh runs and reports their status
// ⭐ SSOT: 새로고침 파이프라인은 이 패키지에서만
type Orchestrator struct {
	feed     AlertFeed
	enricher Enricher
	store    Store
	logger   *logger.Logger
	cfg      Config
	now      func() time.Time

	mu      sync.Mutex
	running bool
	last    Status
	hooks   []func(Status)
}

// New creates a new Orchestrator
func New(feed AlertFeed, enricher Enricher, store Store, cfg Config, log *logger.Logger) *Orchestrator {
	if cfg.Workers < 1 || cfg.Workers > MaxWorkers {
		cfg.Workers = MaxWorkers
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Orchestrator{
		feed:     feed,
		enricher: enricher,
		store:    store,
		logger:   log.WithModule("refresh"),
		cfg:      cfg,
		now:      time.Now,
		last:     Status{State: StateIdle},
	}
}

// OnComplete registers fn to run after every finished refresh, success or failure
func (o *Orchestrator) OnComplete(fn func(Status)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hooks = append(o.hooks, fn)
}

// Status returns the state of the current or most recent run
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// acquire claims the single refresh slot
func (o *Orchestrator) acquire(started time.Time) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	o.last = Status{
		State:     StateRunning,
		Date:      contracts.PartitionKey(started),
		StartedAt: started,
	}
	return true
}

func (o *Orchestrator) release(status Status) {
	o.mu.Lock()
	o.running = false
	o.last = status
	hooks := make([]func(Status), len(o.hooks))
	copy(hooks, o.hooks)
	o.mu.Unlock()

	for _, fn := range hooks {
		fn(status)
	}
}

// Start launches a refresh in the background.
// Returns contracts.ErrRefreshInProgress if one is already running.
func (o *Orchestrator) Start(ctx context.Context) error {
	started := o.now().In(o.cfg.Location)
	if !o.acquire(started) {
		return contracts.ErrRefreshInProgress
	}

	go o.run(ctx, started)
	return nil
}

// Refresh runs one refresh to completion.
// Returns contracts.ErrRefreshInProgress if one is already running,
// otherwise the final status and the fatal error if the run failed.
func (o *Orchestrator) Refresh(ctx context.Context) (Status, error) {
	started := o.now().In(o.cfg.Location)
	if !o.acquire(started) {
		return o.Status(), contracts.ErrRefreshInProgress
	}

	status := o.run(ctx, started)
	if status.State == StateFailed {
		return status, fmt.Errorf("refresh failed: %s", status.Error)
	}
	return status, nil
}

func (o *Orchestrator) run(ctx context.Context, started time.Time) Status {
	status := Status{
		State:     StateRunning,
		Date:      contracts.PartitionKey(started),
		StartedAt: started,
	}

	err := o.execute(ctx, started, &status)

	status.FinishedAt = o.now().In(o.cfg.Location)
	status.Duration = status.FinishedAt.Sub(status.StartedAt)
	if err != nil {
		status.State = StateFailed
		status.Error = err.Error()
		o.logger.WithError(err).WithField("date", status.Date).Error("Refresh failed")
	} else {
		status.State = StateSucceeded
		o.logger.WithFields(map[string]interface{}{
			"date":     status.Date,
			"alerts":   status.Alerts,
			"symbols":  status.Symbols,
			"enriched": status.Enriched,
			"failed":   status.Failed,
			"duration": status.Duration,
		}).Info("Refresh completed")
	}

	o.release(status)
	return status
}

// execute runs the pipeline steps in their required order:
// alert write, symbol derivation, fan-out, enrichment write
func (o *Orchestrator) execute(ctx context.Context, date time.Time, status *Status) error {
	// 1. Fetch feed; any failure here leaves both partitions untouched
	rows, err := o.feed.FetchLargeBuyAlerts(ctx)
	if err != nil {
		return fmt.Errorf("fetch alert feed: %w", err)
	}

	// 2-3. Split info and re-anchor time-of-day to today
	alerts, err := Normalize(rows, date)
	if err != nil {
		return fmt.Errorf("normalize alert feed: %w", err)
	}
	status.Alerts = len(alerts)

	// 4. Replace today's alert partition
	if err := o.store.ReplaceAlerts(ctx, date, alerts); err != nil {
		return fmt.Errorf("replace alerts: %w", err)
	}

	// 5. Distinct symbols from what was just written, minus excluded boards
	refs, err := o.store.DistinctSymbols(ctx, date)
	if err != nil {
		return fmt.Errorf("derive symbols: %w", err)
	}
	refs = Eligible(refs)
	status.Symbols = len(refs)

	// 6. Fan out
	records, failed := o.enrichAll(ctx, refs)
	status.Enriched = len(records)
	status.Failed = failed

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("refresh cancelled: %w", err)
	}

	// 7. Replace today's enrichment partition wholesale
	if err := o.store.ReplaceEnrichment(ctx, date, records); err != nil {
		return fmt.Errorf("replace enrichment: %w", err)
	}

	return nil
}

// Normalize turns feed rows into alerts dated on date's calendar day.
// Unparseable info parts become nil; an unparseable clock fails the batch.
func Normalize(rows []eastmoney.FeedRow, date time.Time) ([]contracts.Alert, error) {
	y, m, d := date.Date()
	loc := date.Location()

	alerts := make([]contracts.Alert, 0, len(rows))
	for _, r := range rows {
		clock, err := time.Parse(time.TimeOnly, r.Clock)
		if err != nil {
			return nil, fmt.Errorf("row %s: parse time %q: %w", r.Symbol, r.Clock, err)
		}

		volume, price, ratio, amount := eastmoney.ParseInfo(r.Info)
		alerts = append(alerts, contracts.Alert{
			Symbol:      r.Symbol,
			Name:        r.Name,
			Time:        time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), 0, loc),
			Volume:      volume,
			Price:       price,
			VolumeRatio: ratio,
			Amount:      amount,
		})
	}
	return alerts, nil
}

// Eligible drops symbols on the Beijing exchange, the sci-tech board and the growth board
func Eligible(refs []contracts.StockRef) []contracts.StockRef {
	out := make([]contracts.StockRef, 0, len(refs))
	for _, ref := range refs {
		if market.Excluded(ref.Symbol) {
			continue
		}
		out = append(out, ref)
	}
	return out
}
