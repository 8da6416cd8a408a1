package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// newMarginCmd prints a one-shot margin snapshot for a client.
func newMarginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "margin <client-id>",
		Short: "Show a client's current margin status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || clientID <= 0 {
				return fmt.Errorf("invalid client id %q", args[0])
			}

			snapshot, err := app.Evaluator.Evaluate(cmd.Context(), clientID)
			if err != nil {
				return err
			}

			header := color.New(color.Bold)
			header.Printf("Margin status for client %d\n\n", clientID)

			if len(snapshot.Positions) > 0 {
				fmt.Printf("%-10s %10s %14s %16s\n", "SYMBOL", "QTY", "PRICE", "VALUE")
				for _, p := range snapshot.Positions {
					fmt.Printf("%-10s %10d %14.2f %16.2f\n", p.Symbol, p.Quantity, p.CurrentPrice, p.PositionValue)
				}
				fmt.Println()
			}

			fmt.Printf("Portfolio market value: %14.2f\n", snapshot.PortfolioMarketValue)
			fmt.Printf("Loan amount:            %14.2f\n", snapshot.LoanAmount)
			fmt.Printf("Net equity:             %14.2f\n", snapshot.NetEquity)
			fmt.Printf("Required margin:        %14.2f\n", snapshot.MarginRequirement)
			fmt.Printf("Shortfall:              %14.2f\n", snapshot.MarginShortfall)

			if snapshot.MarginCallTriggered {
				color.New(color.FgRed, color.Bold).Println("\nMARGIN CALL TRIGGERED")
			} else {
				color.New(color.FgGreen).Println("\nMargin OK")
			}
			return nil
		},
	}
}
