package marketdata

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ngoclma/risk-monitoring-system/internal/logging"
	"github.com/ngoclma/risk-monitoring-system/internal/models"
	"github.com/ngoclma/risk-monitoring-system/internal/pricecache"
)

// SymbolSource provides the distinct set of symbols currently held by any
// client.
type SymbolSource interface {
	DistinctSymbols(ctx context.Context) ([]string, error)
}

// QuoteSink receives the durable copy of each accepted quote.
type QuoteSink interface {
	SaveQuote(ctx context.Context, quote models.PriceQuote) error
}

// Failure records one symbol whose lookup failed this cycle.
type Failure struct {
	Symbol string
	Err    error
}

// CycleReport summarizes one refresh cycle: which symbols were updated and
// which failed, with reasons. Failures are isolated per symbol and never
// abort the cycle or the loop.
type CycleReport struct {
	Started  time.Time
	Duration time.Duration
	Symbols  int
	Updated  []string
	Failures []Failure
}

// Reporter receives cycle reports. Implementations must not block.
type Reporter interface {
	ReportCycle(report CycleReport)
}

// ReporterFunc is a function adapter for Reporter.
type ReporterFunc func(CycleReport)

func (f ReporterFunc) ReportCycle(report CycleReport) {
	f(report)
}

// RefresherConfig holds refresher configuration.
type RefresherConfig struct {
	Interval    time.Duration // refresh period (default: 1m)
	Timeout     time.Duration // per-symbol lookup timeout (default: 10s)
	Concurrency int           // max concurrent lookups (default: 8)
}

// DefaultRefresherConfig returns sensible defaults.
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		Concurrency: 8,
	}
}

func (c RefresherConfig) withDefaults() RefresherConfig {
	d := DefaultRefresherConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	return c
}

// Refresher periodically refreshes the price cache from the price-lookup
// service. It runs for the lifetime of the process; per-symbol failures are
// contained and the loop itself never terminates on lookup errors.
type Refresher struct {
	cfg      RefresherConfig
	source   PriceSource
	symbols  SymbolSource
	cache    *pricecache.Cache
	sink     QuoteSink
	reporter Reporter
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefresher creates a new refresher. sink and reporter may be nil.
func NewRefresher(cfg RefresherConfig, source PriceSource, symbols SymbolSource, cache *pricecache.Cache, sink QuoteSink, reporter Reporter, logger zerolog.Logger) *Refresher {
	return &Refresher{
		cfg:      cfg.withDefaults(),
		source:   source,
		symbols:  symbols,
		cache:    cache,
		sink:     sink,
		reporter: reporter,
		logger:   logger,
	}
}

// Start begins the refresh loop. The first cycle runs immediately.
func (r *Refresher) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info().
		Dur("interval", r.cfg.Interval).
		Dur("lookup_timeout", r.cfg.Timeout).
		Int("concurrency", r.cfg.Concurrency).
		Msg("Price refresher started")
}

// Stop shuts down the refresher. The loop stops between cycles; in-flight
// symbol lookups are cancelled via their per-lookup contexts.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info().Msg("Price refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.RefreshOnce(r.ctx)

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.RefreshOnce(r.ctx)
		}
	}
}

// RefreshOnce runs a single refresh cycle: one independent lookup per
// distinct held symbol, bounded concurrency, per-symbol timeout. An empty
// symbol set is a no-op.
func (r *Refresher) RefreshOnce(ctx context.Context) CycleReport {
	report := CycleReport{Started: time.Now().UTC()}

	symbols, err := r.symbols.DistinctSymbols(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to list held symbols")
		report.Duration = time.Since(report.Started)
		return report
	}
	report.Symbols = len(symbols)
	if len(symbols) == 0 {
		r.logger.Debug().Msg("No held symbols to refresh")
		report.Duration = time.Since(report.Started)
		return report
	}

	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				report.Failures = append(report.Failures, Failure{Symbol: symbol, Err: ctx.Err()})
				mu.Unlock()
				return
			}

			if err := r.refreshSymbol(ctx, symbol); err != nil {
				symbolLogger := logging.WithSymbol(r.logger, symbol)
				symbolLogger.Warn().Err(err).Msg("Price lookup failed")
				mu.Lock()
				report.Failures = append(report.Failures, Failure{Symbol: symbol, Err: err})
				mu.Unlock()
				return
			}

			mu.Lock()
			report.Updated = append(report.Updated, symbol)
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	sort.Strings(report.Updated)
	report.Duration = time.Since(report.Started)

	logging.LogRefreshCycle(r.logger, report.Symbols, len(report.Updated), len(report.Failures), report.Duration)
	if r.reporter != nil {
		r.reporter.ReportCycle(report)
	}
	return report
}

// refreshSymbol looks up one symbol under its own bounded timeout and writes
// the result through to the cache and the durable copy.
func (r *Refresher) refreshSymbol(ctx context.Context, symbol string) error {
	lookupCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	price, err := r.source.Price(lookupCtx, symbol)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	r.cache.Put(symbol, price, now)

	if r.sink != nil {
		quote := models.PriceQuote{Symbol: symbol, Price: price, Timestamp: now}
		if err := r.sink.SaveQuote(ctx, quote); err != nil {
			// The cache already holds the fresh quote; losing the durable
			// copy only costs warm-start coverage.
			symbolLogger := logging.WithSymbol(r.logger, symbol)
			symbolLogger.Warn().Err(err).Msg("Failed to persist quote")
		}
	}
	return nil
}
