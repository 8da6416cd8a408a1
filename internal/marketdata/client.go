// Package marketdata integrates with the external price-lookup service and
// keeps the price cache fresh.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ngoclma/risk-monitoring-system/internal/errors"
	"github.com/ngoclma/risk-monitoring-system/pkg/utils"
)

// DefaultBaseURL is the production quote endpoint.
const DefaultBaseURL = "https://api.twelvedata.com"

// PriceSource looks up the current price for one symbol. The service is
// treated as unreliable; callers isolate failures per symbol.
type PriceSource interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// ClientConfig holds price-lookup client configuration.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retry   utils.RetryConfig
}

// Client is a REST client for the price-lookup service.
type Client struct {
	baseURL    string
	apiKey     string
	retry      utils.RetryConfig
	httpClient *http.Client
}

// NewClient creates a new price-lookup client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = utils.DefaultRetryConfig()
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		retry:   retry,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// priceResponse is the wire format of the /price endpoint. Errors arrive as
// a 200 with status "error" and a message instead of a price field.
type priceResponse struct {
	Price   string `json:"price"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Price fetches the current price for a symbol. Transient failures are
// retried with backoff inside the caller's deadline.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	price, err := utils.RetryWithResult(ctx, c.retry, func() (float64, error) {
		return c.fetchPrice(ctx, symbol)
	})
	if err != nil {
		return 0, errors.NewLookupError(symbol, err)
	}
	return price, nil
}

func (c *Client) fetchPrice(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/price?%s", c.baseURL, url.Values{
		"symbol": {symbol},
		"apikey": {c.apiKey},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(errors.ErrQuoteUnavailable, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, errors.Wrap(errors.ErrQuoteUnavailable, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Wrapf(errors.ErrQuoteUnavailable, "unexpected status %d", resp.StatusCode)
	}

	var pr priceResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return 0, errors.Wrap(errors.ErrQuoteUnavailable, "malformed response")
	}
	if pr.Status == "error" {
		return 0, errors.Wrapf(errors.ErrQuoteUnavailable, "service error: %s", pr.Message)
	}
	if pr.Price == "" {
		return 0, errors.Wrap(errors.ErrQuoteUnavailable, "missing price field")
	}

	price, err := strconv.ParseFloat(pr.Price, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrQuoteUnavailable, "unparseable price %q", pr.Price)
	}
	if price <= 0 {
		return 0, errors.Wrapf(errors.ErrQuoteUnavailable, "non-positive price %v", price)
	}

	return price, nil
}
