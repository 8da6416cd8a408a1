package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngoclma/risk-monitoring-system/internal/errors"
	"github.com/ngoclma/risk-monitoring-system/pkg/utils"
)

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		Retry:   utils.RetryConfig{MaxAttempts: 1},
	})
}

func TestPriceSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(`{"price":"155.25"}`))
	}))
	defer server.Close()

	price, err := newTestClient(server.URL).Price(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 155.25, price)
}

func TestPriceServiceError(t *testing.T) {
	// The service reports unknown symbols as a 200 with an error payload.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":404,"message":"symbol not found","status":"error"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Price(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQuoteUnavailable))

	var lookupErr *errors.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "NOPE", lookupErr.Symbol)
}

func TestPriceMissingField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Price(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQuoteUnavailable))
}

func TestPriceMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Price(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQuoteUnavailable))
}

func TestPriceHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Price(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQuoteUnavailable))
}

func TestPriceRejectsNonPositive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":"0"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Price(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQuoteUnavailable))
}

func TestPriceRetriesTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"price":"42.5"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		Retry: utils.RetryConfig{
			MaxAttempts:   2,
			InitialDelay:  time.Millisecond,
			MaxDelay:      time.Millisecond,
			BackoffFactor: 1.0,
		},
	})

	price, err := client.Price(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 42.5, price)
	assert.Equal(t, 2, attempts)
}
