// Package api exposes the HTTP surface of the risk monitoring service.
// The routing and serialization layer is deliberately thin; all business
// rules live in the margin and marketdata packages.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ngoclma/risk-monitoring-system/internal/errors"
	"github.com/ngoclma/risk-monitoring-system/internal/margin"
	"github.com/ngoclma/risk-monitoring-system/internal/pricecache"
	"github.com/ngoclma/risk-monitoring-system/internal/store"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	store     store.Store
	cache     *pricecache.Cache
	evaluator *margin.Evaluator
	ledger    *margin.Ledger
	refresh   *RefreshHealth
	logger    zerolog.Logger
}

// NewServer creates a new API server. refresh may be nil when no refresher
// is running.
func NewServer(st store.Store, cache *pricecache.Cache, evaluator *margin.Evaluator, ledger *margin.Ledger, refresh *RefreshHealth, logger zerolog.Logger) *Server {
	return &Server{
		store:     st,
		cache:     cache,
		evaluator: evaluator,
		ledger:    ledger,
		refresh:   refresh,
		logger:    logger,
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/market-data", s.handleMarketData)
	mux.HandleFunc("GET /api/positions/{clientID}", s.handleListPositions)
	mux.HandleFunc("POST /api/positions", s.handleCreatePosition)
	mux.HandleFunc("GET /api/margin-status/{clientID}", s.handleMarginStatus)
	mux.HandleFunc("POST /api/loan/pay", s.handlePayLoan)
	mux.HandleFunc("POST /api/loan/increase", s.handleIncreaseLoan)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain errors onto distinguishable HTTP conditions:
// missing records are 404, rejected payloads 400, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrMarginNotFound),
		errors.Is(err, errors.ErrClientNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidAmount):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("Request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
