// Package cli provides the command-line interface for the risk monitoring service.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ngoclma/risk-monitoring-system/internal/config"
	"github.com/ngoclma/risk-monitoring-system/internal/margin"
	"github.com/ngoclma/risk-monitoring-system/internal/pricecache"
	"github.com/ngoclma/risk-monitoring-system/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     store.Store
	Cache     *pricecache.Cache
	Evaluator *margin.Evaluator
	Ledger    *margin.Ledger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:     "riskmond",
		Short:   "Brokerage client risk monitoring service",
		Long:    "riskmond tracks client portfolios against a live price feed and detects under-collateralized margin loans.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Store != nil {
				app.Store.Close()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newSeedCmd(app))
	rootCmd.AddCommand(newMarginCmd(app))

	return rootCmd
}

// init opens the store, warms the price cache from the durable quote copy,
// and wires the evaluator and ledger.
func (a *App) init(ctx context.Context) error {
	st, err := store.NewSQLiteStore(a.Config.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	a.Store = st
	a.Logger.Debug().Str("path", a.Config.Database.Path).Msg("SQLite store initialized")

	a.Cache = pricecache.New()
	warmCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	quotes, err := st.ListQuotes(warmCtx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to warm price cache, starting cold")
	} else {
		a.Cache.Load(quotes)
		a.Logger.Debug().Int("quotes", len(quotes)).Msg("Price cache warmed")
	}

	a.Evaluator = margin.NewEvaluator(st, a.Cache)
	a.Ledger = margin.NewLedger(st)
	return nil
}
