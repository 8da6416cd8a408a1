// Package margin implements margin evaluation and loan ledger operations.
package margin

import (
	"context"

	"github.com/ngoclma/risk-monitoring-system/internal/errors"
	"github.com/ngoclma/risk-monitoring-system/internal/models"
)

// PortfolioSource provides a client's positions and loan terms.
type PortfolioSource interface {
	GetPositions(ctx context.Context, clientID int64) ([]models.Position, error)
	GetMargin(ctx context.Context, clientID int64) (*models.Margin, error)
}

// QuoteGetter provides the latest live quote per symbol.
type QuoteGetter interface {
	Get(symbol string) (models.PriceQuote, bool)
}

// Evaluator computes point-in-time margin snapshots. It is pure given its
// inputs: the same positions, margin record, and quotes always produce the
// same snapshot.
type Evaluator struct {
	portfolio PortfolioSource
	quotes    QuoteGetter
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(portfolio PortfolioSource, quotes QuoteGetter) *Evaluator {
	return &Evaluator{
		portfolio: portfolio,
		quotes:    quotes,
	}
}

// effectivePrice resolves the price used for valuation: the live quote when
// one has been observed, otherwise the position's cost basis. The fallback
// is a deliberate approximation for never-quoted symbols, not an error.
// A position with neither a quote nor a usable cost basis is unpriceable.
func (e *Evaluator) effectivePrice(position models.Position) (float64, error) {
	if quote, ok := e.quotes.Get(position.Symbol); ok {
		return quote.Price, nil
	}
	if position.CostBasis <= 0 {
		return 0, errors.Wrapf(errors.ErrUnpriceablePosition, "symbol %s", position.Symbol)
	}
	return position.CostBasis, nil
}

// Evaluate computes the margin snapshot for a client. A client without a
// margin record cannot be evaluated and reports ErrMarginNotFound; a client
// with a margin record and no positions is valid and evaluates against a
// zero-value portfolio.
func (e *Evaluator) Evaluate(ctx context.Context, clientID int64) (*models.MarginSnapshot, error) {
	margin, err := e.portfolio.GetMargin(ctx, clientID)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate client %d", clientID)
	}

	positions, err := e.portfolio.GetPositions(ctx, clientID)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate client %d", clientID)
	}

	var marketValue float64
	breakdown := make([]models.PositionValue, 0, len(positions))
	for _, position := range positions {
		price, err := e.effectivePrice(position)
		if err != nil {
			return nil, err
		}
		value := float64(position.Quantity) * price
		marketValue += value
		breakdown = append(breakdown, models.PositionValue{
			Symbol:        position.Symbol,
			Quantity:      position.Quantity,
			CurrentPrice:  price,
			PositionValue: value,
		})
	}

	netEquity := marketValue - margin.LoanAmount
	requirement := margin.RequirementRate * marketValue
	shortfall := requirement - netEquity

	return &models.MarginSnapshot{
		ClientID:             clientID,
		PortfolioMarketValue: marketValue,
		LoanAmount:           margin.LoanAmount,
		NetEquity:            netEquity,
		MarginRequirement:    requirement,
		MarginShortfall:      shortfall,
		// Strict comparison: a shortfall of exactly zero is safe.
		MarginCallTriggered: shortfall > 0,
		Positions:           breakdown,
	}, nil
}

// EnrichPositions returns a client's positions annotated with effective
// price and market value. Unlike Evaluate, it does not require a margin
// record; a client with no positions yields an empty list.
func (e *Evaluator) EnrichPositions(ctx context.Context, clientID int64) ([]models.EnrichedPosition, error) {
	positions, err := e.portfolio.GetPositions(ctx, clientID)
	if err != nil {
		return nil, errors.Wrapf(err, "list positions for client %d", clientID)
	}

	enriched := make([]models.EnrichedPosition, 0, len(positions))
	for _, position := range positions {
		price, err := e.effectivePrice(position)
		if err != nil {
			return nil, err
		}
		enriched = append(enriched, models.EnrichedPosition{
			ID:           position.ID,
			Symbol:       position.Symbol,
			Quantity:     position.Quantity,
			CostBasis:    position.CostBasis,
			CurrentPrice: price,
			MarketValue:  float64(position.Quantity) * price,
		})
	}
	return enriched, nil
}
