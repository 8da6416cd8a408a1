package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ngoclma/risk-monitoring-system/internal/errors"
	"github.com/ngoclma/risk-monitoring-system/internal/logging"
	"github.com/ngoclma/risk-monitoring-system/internal/models"
)

func clientIDFromPath(r *http.Request) (int64, error) {
	raw := r.PathValue("clientID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError("client_id", raw, "must be a positive integer")
	}
	return id, nil
}

// handleHealth reports process liveness and the outcome of the most recent
// price refresh cycle, when a refresher is running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{"status": "ok"}
	if s.refresh != nil {
		if cycle, ok := s.refresh.LastCycle(); ok {
			payload["last_refresh"] = map[string]interface{}{
				"started":  cycle.Started,
				"duration": cycle.Duration.String(),
				"symbols":  cycle.Symbols,
				"updated":  len(cycle.Updated),
				"failed":   len(cycle.Failures),
			}
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// handleMarketData lists all cached price quotes.
func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cache.Snapshot())
}

// handleListPositions lists a client's positions enriched with effective
// price and market value. An unknown client yields an empty list.
func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	clientID, err := clientIDFromPath(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	positions, err := s.evaluator.EnrichPositions(r.Context(), clientID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, positions)
}

type createPositionRequest struct {
	Symbol    string  `json:"symbol"`
	Quantity  int64   `json:"quantity"`
	CostBasis float64 `json:"cost_basis"`
	ClientID  int64   `json:"client_id"`
}

// handleCreatePosition creates a position. Duplicate symbols per client are
// permitted as distinct rows.
func (s *Server) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var req createPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.NewValidationError("body", nil, "malformed JSON"))
		return
	}

	switch {
	case req.Symbol == "":
		s.writeError(w, errors.NewValidationError("symbol", req.Symbol, "must not be empty"))
		return
	case req.Quantity < 0:
		s.writeError(w, errors.NewValidationError("quantity", req.Quantity, "must be non-negative"))
		return
	case req.CostBasis <= 0:
		s.writeError(w, errors.NewValidationError("cost_basis", req.CostBasis, "must be positive"))
		return
	case req.ClientID <= 0:
		s.writeError(w, errors.NewValidationError("client_id", req.ClientID, "must be a positive integer"))
		return
	}

	position := &models.Position{
		ID:        uuid.NewString(),
		ClientID:  req.ClientID,
		Symbol:    req.Symbol,
		Quantity:  req.Quantity,
		CostBasis: req.CostBasis,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreatePosition(r.Context(), position); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Position created successfully",
		"id":      position.ID,
	})
}

// handleMarginStatus computes a client's margin snapshot.
func (s *Server) handleMarginStatus(w http.ResponseWriter, r *http.Request) {
	clientID, err := clientIDFromPath(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	snapshot, err := s.evaluator.Evaluate(r.Context(), clientID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if snapshot.MarginCallTriggered {
		logging.LogMarginCall(s.logger, clientID, snapshot.MarginShortfall)
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

type payLoanRequest struct {
	ClientID      int64   `json:"client_id"`
	PaymentAmount float64 `json:"payment_amount"`
}

// handlePayLoan applies a loan payment.
func (s *Server) handlePayLoan(w http.ResponseWriter, r *http.Request) {
	var req payLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.NewValidationError("body", nil, "malformed JSON"))
		return
	}
	if req.ClientID <= 0 {
		s.writeError(w, errors.NewValidationError("client_id", req.ClientID, "must be a positive integer"))
		return
	}

	newBalance, err := s.ledger.Pay(r.Context(), req.ClientID, req.PaymentAmount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	clientLogger := logging.WithClient(s.logger, req.ClientID)
	clientLogger.Info().
		Float64("payment_amount", req.PaymentAmount).
		Float64("new_loan_amount", newBalance).
		Msg("Loan payment applied")

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Loan payment successful",
		"new_loan_amount": newBalance,
	})
}

type increaseLoanRequest struct {
	ClientID           int64   `json:"client_id"`
	LoanIncreaseAmount float64 `json:"loan_increase_amount"`
}

// handleIncreaseLoan applies a loan drawdown.
func (s *Server) handleIncreaseLoan(w http.ResponseWriter, r *http.Request) {
	var req increaseLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.NewValidationError("body", nil, "malformed JSON"))
		return
	}
	if req.ClientID <= 0 {
		s.writeError(w, errors.NewValidationError("client_id", req.ClientID, "must be a positive integer"))
		return
	}

	newBalance, err := s.ledger.Increase(r.Context(), req.ClientID, req.LoanIncreaseAmount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	clientLogger := logging.WithClient(s.logger, req.ClientID)
	clientLogger.Info().
		Float64("loan_increase_amount", req.LoanIncreaseAmount).
		Float64("new_loan_amount", newBalance).
		Msg("Loan increase applied")

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Loan increase successful",
		"new_loan_amount": newBalance,
	})
}
