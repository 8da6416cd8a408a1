package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ngoclma/risk-monitoring-system/internal/models"
)

// newSeedCmd loads the demo dataset, replacing any existing data.
func newSeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Reset the database and load demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), app)
		},
	}
}

func runSeed(ctx context.Context, app *App) error {
	if err := app.Store.Reset(ctx); err != nil {
		return fmt.Errorf("clearing existing data: %w", err)
	}

	clientID, err := app.Store.CreateClient(ctx, "John Doe", "john@example.com")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	positions := []models.Position{
		{Symbol: "AAPL", Quantity: 100, CostBasis: 150.0},
		{Symbol: "MSFT", Quantity: 50, CostBasis: 280.0},
		{Symbol: "AMZN", Quantity: 20, CostBasis: 3200.0},
	}
	for _, p := range positions {
		p.ID = uuid.NewString()
		p.ClientID = clientID
		p.CreatedAt = now
		if err := app.Store.CreatePosition(ctx, &p); err != nil {
			return err
		}
	}

	quotes := []models.PriceQuote{
		{Symbol: "AAPL", Price: 155.0, Timestamp: now},
		{Symbol: "MSFT", Price: 285.0, Timestamp: now},
		{Symbol: "AMZN", Price: 3250.0, Timestamp: now},
	}
	for _, q := range quotes {
		if err := app.Store.SaveQuote(ctx, q); err != nil {
			return err
		}
	}

	if err := app.Store.SaveMargin(ctx, &models.Margin{
		ClientID:        clientID,
		LoanAmount:      20000.0,
		RequirementRate: models.DefaultRequirementRate,
	}); err != nil {
		return err
	}

	app.Logger.Info().Int64("client_id", clientID).Msg("Database seeded successfully")
	fmt.Printf("Database seeded successfully (client %d)\n", clientID)
	return nil
}
