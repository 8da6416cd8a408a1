package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ngoclma/risk-monitoring-system/internal/api"
	"github.com/ngoclma/risk-monitoring-system/internal/marketdata"
)

// newServeCmd runs the HTTP API and the price refresher until interrupted.
func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the risk monitoring service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), app)
		},
	}
}

func runServe(ctx context.Context, app *App) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	md := app.Config.MarketData
	source := marketdata.NewClient(marketdata.ClientConfig{
		BaseURL: md.BaseURL,
		APIKey:  md.APIKey,
		Timeout: md.LookupTimeout,
	})

	health := api.NewRefreshHealth()
	refresher := marketdata.NewRefresher(
		marketdata.RefresherConfig{
			Interval:    md.RefreshInterval,
			Timeout:     md.LookupTimeout,
			Concurrency: md.Concurrency,
		},
		source,
		app.Store,
		app.Cache,
		app.Store,
		health,
		app.Logger,
	)
	refresher.Start(ctx)

	server := &http.Server{
		Addr:              app.Config.Server.Addr,
		Handler:           api.NewServer(app.Store, app.Cache, app.Evaluator, app.Ledger, health, app.Logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		app.Logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			stopRefresher(app, refresher)
			return err
		}
	case <-ctx.Done():
		app.Logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Warn().Err(err).Msg("HTTP server shutdown incomplete")
	}
	stopRefresher(app, refresher)
	return nil
}

func stopRefresher(app *App, refresher *marketdata.Refresher) {
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := refresher.Stop(stopCtx); err != nil {
		app.Logger.Warn().Err(err).Msg("Price refresher shutdown incomplete")
	}
}
