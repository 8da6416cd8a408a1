package margin

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ngoclma/risk-monitoring-system/internal/models"
	"github.com/ngoclma/risk-monitoring-system/internal/pricecache"
)

// Property: for any fully priced portfolio, the snapshot satisfies
// shortfall == requiredMargin - (marketValue - loanAmount) exactly, and the
// call flag is strictly shortfall > 0.
func TestProperty_SnapshotArithmeticIdentity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "MSFT", "AMZN", "GOOG", "TSLA", "NFLX"}

	properties.Property("shortfall identity holds for priced portfolios", prop.ForAll(
		func(quantities []int64, loan int64, rateQuarters int) bool {
			portfolio := newFakePortfolio()
			cache := pricecache.New()

			rate := float64(rateQuarters) * 0.25
			now := time.Now().UTC()

			var positions []models.Position
			for i, qty := range quantities {
				symbol := symbols[i%len(symbols)]
				price := float64(50 + 25*i)
				cache.Put(symbol, price, now)
				positions = append(positions, models.Position{
					Symbol:    symbol,
					Quantity:  qty,
					CostBasis: price,
				})
			}
			portfolio.positions[1] = positions
			portfolio.margins[1] = &models.Margin{
				ClientID:        1,
				LoanAmount:      float64(loan),
				RequirementRate: rate,
			}

			snapshot, err := NewEvaluator(portfolio, cache).Evaluate(context.Background(), 1)
			if err != nil {
				t.Logf("evaluate failed: %v", err)
				return false
			}

			// Recompute with the same operation order.
			var marketValue float64
			for i, qty := range quantities {
				marketValue += float64(qty) * float64(50+25*i)
			}
			netEquity := marketValue - float64(loan)
			required := rate * marketValue
			shortfall := required - netEquity

			return snapshot.PortfolioMarketValue == marketValue &&
				snapshot.NetEquity == netEquity &&
				snapshot.MarginRequirement == required &&
				snapshot.MarginShortfall == shortfall &&
				snapshot.MarginCallTriggered == (shortfall > 0)
		},
		gen.SliceOfN(4, gen.Int64Range(0, 10000)),
		gen.Int64Range(0, 5000000),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}

// Property: any sequence of valid integer-amount payments and increases
// leaves the balance at initial - sum(payments) + sum(increases), with the
// loan amount never observed negative.
func TestProperty_LedgerBalanceConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("ledger mutations conserve balance", prop.ForAll(
		func(deltas []int64) bool {
			const initial = 1 << 40
			portfolio := newFakePortfolio()
			portfolio.margins[1] = &models.Margin{ClientID: 1, LoanAmount: initial, RequirementRate: 0.25}
			ledger := NewLedger(portfolio)

			ctx := context.Background()
			expected := float64(initial)
			for _, d := range deltas {
				if d == 0 {
					continue
				}
				var err error
				if d > 0 {
					_, err = ledger.Increase(ctx, 1, float64(d))
					expected += float64(d)
				} else {
					_, err = ledger.Pay(ctx, 1, float64(-d))
					expected -= float64(-d)
				}
				if err != nil {
					t.Logf("mutation failed: %v", err)
					return false
				}
			}

			m, err := portfolio.GetMargin(ctx, 1)
			if err != nil {
				return false
			}
			return m.LoanAmount == expected && m.LoanAmount >= 0
		},
		gen.SliceOf(gen.Int64Range(-1000000, 1000000)),
	))

	properties.TestingRun(t)
}
