package marketdata

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngoclma/risk-monitoring-system/internal/models"
	"github.com/ngoclma/risk-monitoring-system/internal/pricecache"
)

// fakeSource serves canned prices and failures per symbol.
type fakeSource struct {
	mu     sync.Mutex
	prices map[string]float64
	errs   map[string]error
	block  map[string]bool // lookups that hang until the context expires
	calls  atomic.Int64
}

func (f *fakeSource) Price(ctx context.Context, symbol string) (float64, error) {
	f.calls.Add(1)
	f.mu.Lock()
	blocked := f.block[symbol]
	err := f.errs[symbol]
	price, ok := f.prices[symbol]
	f.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("no such symbol %s", symbol)
	}
	return price, nil
}

// fakeSymbols is a static SymbolSource.
type fakeSymbols struct {
	symbols []string
}

func (f *fakeSymbols) DistinctSymbols(ctx context.Context) ([]string, error) {
	return f.symbols, nil
}

// fakeSink records persisted quotes.
type fakeSink struct {
	mu     sync.Mutex
	quotes []models.PriceQuote
}

func (f *fakeSink) SaveQuote(ctx context.Context, quote models.PriceQuote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes = append(f.quotes, quote)
	return nil
}

func (f *fakeSink) saved() []models.PriceQuote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PriceQuote(nil), f.quotes...)
}

func testRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Interval:    time.Hour, // cycles driven manually via RefreshOnce
		Timeout:     100 * time.Millisecond,
		Concurrency: 4,
	}
}

func TestRefreshOnceIsolatesPerSymbolFailures(t *testing.T) {
	source := &fakeSource{
		prices: map[string]float64{"AAPL": 155.0, "MSFT": 285.0},
		errs:   map[string]error{"AMZN": fmt.Errorf("boom")},
	}
	cache := pricecache.New()
	sink := &fakeSink{}

	var reported CycleReport
	reporter := ReporterFunc(func(r CycleReport) { reported = r })

	refresher := NewRefresher(testRefresherConfig(), source,
		&fakeSymbols{symbols: []string{"AAPL", "AMZN", "MSFT"}},
		cache, sink, reporter, zerolog.Nop())

	report := refresher.RefreshOnce(context.Background())

	assert.Equal(t, 3, report.Symbols)
	assert.Equal(t, []string{"AAPL", "MSFT"}, report.Updated)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "AMZN", report.Failures[0].Symbol)

	// The two healthy symbols made it into the cache despite the failure.
	quote, ok := cache.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 155.0, quote.Price)
	_, ok = cache.Get("AMZN")
	assert.False(t, ok, "failed symbol must stay unpriced, not defaulted")

	assert.Len(t, sink.saved(), 2, "accepted quotes are written through")
	assert.Equal(t, report.Updated, reported.Updated, "cycle report reaches the reporter")
}

func TestRefreshOnceEmptySymbolSetIsNoOp(t *testing.T) {
	source := &fakeSource{prices: map[string]float64{}}
	cache := pricecache.New()

	refresher := NewRefresher(testRefresherConfig(), source,
		&fakeSymbols{}, cache, nil, nil, zerolog.Nop())

	report := refresher.RefreshOnce(context.Background())

	assert.Equal(t, 0, report.Symbols)
	assert.Empty(t, report.Updated)
	assert.Empty(t, report.Failures)
	assert.Equal(t, int64(0), source.calls.Load(), "no lookups for an empty symbol set")
}

func TestRefreshOnceGlobalOutageRetainsStaleData(t *testing.T) {
	cache := pricecache.New()
	stale := time.Now().UTC().Add(-time.Hour)
	cache.Put("AAPL", 150.0, stale)

	source := &fakeSource{errs: map[string]error{
		"AAPL": fmt.Errorf("connection refused"),
		"MSFT": fmt.Errorf("connection refused"),
	}}

	refresher := NewRefresher(testRefresherConfig(), source,
		&fakeSymbols{symbols: []string{"AAPL", "MSFT"}},
		cache, nil, nil, zerolog.Nop())

	report := refresher.RefreshOnce(context.Background())

	assert.Len(t, report.Failures, 2)
	quote, ok := cache.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 150.0, quote.Price, "stale data survives a failed cycle")
}

func TestRefreshOnceHangingLookupDoesNotStallOthers(t *testing.T) {
	source := &fakeSource{
		prices: map[string]float64{"AAPL": 155.0, "MSFT": 285.0},
		block:  map[string]bool{"SLOW": true},
	}
	cache := pricecache.New()

	refresher := NewRefresher(testRefresherConfig(), source,
		&fakeSymbols{symbols: []string{"SLOW", "AAPL", "MSFT"}},
		cache, nil, nil, zerolog.Nop())

	start := time.Now()
	report := refresher.RefreshOnce(context.Background())

	assert.Less(t, time.Since(start), 2*time.Second,
		"the per-symbol timeout bounds a hanging lookup")
	assert.Equal(t, []string{"AAPL", "MSFT"}, report.Updated)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "SLOW", report.Failures[0].Symbol)
}

func TestStartStopLifecycle(t *testing.T) {
	source := &fakeSource{prices: map[string]float64{"AAPL": 155.0}}
	cache := pricecache.New()

	cfg := testRefresherConfig()
	cfg.Interval = 10 * time.Millisecond

	refresher := NewRefresher(cfg, source,
		&fakeSymbols{symbols: []string{"AAPL"}},
		cache, nil, nil, zerolog.Nop())

	refresher.Start(context.Background())

	// Let at least the immediate cycle plus a few ticks run.
	deadline := time.Now().Add(2 * time.Second)
	for source.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.GreaterOrEqual(t, source.calls.Load(), int64(3), "loop keeps cycling")

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, refresher.Stop(stopCtx))

	stopped := source.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, source.calls.Load(), "no lookups after Stop")

	_, ok := cache.Get("AAPL")
	assert.True(t, ok)
}

func TestLoopSurvivesFailingCycles(t *testing.T) {
	source := &fakeSource{errs: map[string]error{"AAPL": fmt.Errorf("boom")}}
	cache := pricecache.New()

	cfg := testRefresherConfig()
	cfg.Interval = 10 * time.Millisecond

	refresher := NewRefresher(cfg, source,
		&fakeSymbols{symbols: []string{"AAPL"}},
		cache, nil, nil, zerolog.Nop())

	refresher.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for source.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, source.calls.Load(), int64(3),
		"lookup failures never terminate the loop")

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, refresher.Stop(stopCtx))
}
