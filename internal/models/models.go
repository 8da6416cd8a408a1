// Package models provides domain models for the risk monitoring service.
package models

import (
	"time"
)

// DefaultRequirementRate is the flat margin requirement applied when a
// margin record does not specify its own rate.
const DefaultRequirementRate = 0.25

// Client represents a brokerage client.
type Client struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Position represents a client's holding of a quantity of one symbol.
// Positions are immutable once created. Valuation uses the live quote when
// one exists and falls back to cost basis otherwise.
type Position struct {
	ID        string    `json:"id"`
	ClientID  int64     `json:"client_id"`
	Symbol    string    `json:"symbol"`
	Quantity  int64     `json:"quantity"`
	CostBasis float64   `json:"cost_basis"`
	CreatedAt time.Time `json:"created_at"`
}

// PriceQuote is the latest observed market price for a symbol.
// At most one live quote exists per symbol (last write wins).
type PriceQuote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"current_price"`
	Timestamp time.Time `json:"timestamp"`
}

// Margin holds a client's loan terms. One record per client; the loan
// amount is never negative.
type Margin struct {
	ClientID        int64   `json:"client_id"`
	LoanAmount      float64 `json:"loan_amount"`
	RequirementRate float64 `json:"margin_requirement_rate"`
}

// PositionValue is one row of a margin snapshot's per-position breakdown.
type PositionValue struct {
	Symbol        string  `json:"symbol"`
	Quantity      int64   `json:"quantity"`
	CurrentPrice  float64 `json:"current_price"`
	PositionValue float64 `json:"position_value"`
}

// EnrichedPosition is a position annotated with its effective price and
// market value, as returned by the positions listing.
type EnrichedPosition struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Quantity     int64   `json:"quantity"`
	CostBasis    float64 `json:"cost_basis"`
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
}

// MarginSnapshot is the point-in-time margin status for one client.
// MarginShortfall is signed: a positive value means the client is
// under-collateralized.
type MarginSnapshot struct {
	ClientID             int64           `json:"client_id"`
	PortfolioMarketValue float64         `json:"portfolio_market_value"`
	LoanAmount           float64         `json:"loan_amount"`
	NetEquity            float64         `json:"net_equity"`
	MarginRequirement    float64         `json:"margin_requirement"`
	MarginShortfall      float64         `json:"margin_shortfall"`
	MarginCallTriggered  bool            `json:"margin_call_triggered"`
	Positions            []PositionValue `json:"positions"`
}
