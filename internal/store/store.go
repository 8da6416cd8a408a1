// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/ngoclma/risk-monitoring-system/internal/models"
)

// Store defines the interface for data persistence.
type Store interface {
	// Clients
	CreateClient(ctx context.Context, name, email string) (int64, error)
	GetClient(ctx context.Context, clientID int64) (*models.Client, error)

	// Positions
	CreatePosition(ctx context.Context, position *models.Position) error
	GetPositions(ctx context.Context, clientID int64) ([]models.Position, error)
	DistinctSymbols(ctx context.Context) ([]string, error)

	// Margins
	GetMargin(ctx context.Context, clientID int64) (*models.Margin, error)
	SaveMargin(ctx context.Context, margin *models.Margin) error
	UpdateLoanAmount(ctx context.Context, clientID int64, amount float64) error

	// Price quotes (durable copy of the in-memory cache)
	SaveQuote(ctx context.Context, quote models.PriceQuote) error
	ListQuotes(ctx context.Context) ([]models.PriceQuote, error)

	// Reset clears all data. Used by the seed command.
	Reset(ctx context.Context) error

	// Lifecycle
	Close() error
}
