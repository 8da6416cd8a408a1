package api

import (
	"sync"

	"github.com/ngoclma/risk-monitoring-system/internal/marketdata"
)

// RefreshHealth tracks the most recent price refresh cycle so the health
// endpoint can report feed liveness. It implements marketdata.Reporter.
type RefreshHealth struct {
	mu   sync.Mutex
	last *marketdata.CycleReport
}

// NewRefreshHealth creates an empty tracker.
func NewRefreshHealth() *RefreshHealth {
	return &RefreshHealth{}
}

// ReportCycle records the cycle outcome. It never blocks.
func (h *RefreshHealth) ReportCycle(report marketdata.CycleReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &report
}

// LastCycle returns the most recent cycle report, if any cycle has run.
func (h *RefreshHealth) LastCycle() (marketdata.CycleReport, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return marketdata.CycleReport{}, false
	}
	return *h.last, true
}
