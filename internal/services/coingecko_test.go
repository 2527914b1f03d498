package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kipngetichbrian48/Bidance/internal/config"
	"github.com/Kipngetichbrian48/Bidance/internal/models"
)

func upstreamConfig(baseURL string) *config.UpstreamConfig {
	return &config.UpstreamConfig{
		BaseURL:       baseURL,
		APIKey:        "test-key",
		Timeout:       2 * time.Second,
		FetchDeadline: 10 * time.Second,
	}
}

func TestFetchSnapshotDecodesPrices(t *testing.T) {
	var gotKey atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("x-cg-pro-api-key"))

		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Contains(t, r.URL.Query().Get("ids"), "bitcoin")
		assert.Contains(t, r.URL.Query().Get("ids"), "ripple")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{"usd":43250.5},"ethereum":{"usd":2290.1}}`))
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	snapshot, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 43250.5, snapshot["bitcoin"].USD)
	assert.Equal(t, 2290.1, snapshot["ethereum"].USD)
	assert.Equal(t, "test-key", gotKey.Load(), "API key header should be attached")
}

func TestFetchSnapshotRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	_, err := client.FetchSnapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrUpstream)
}

func TestFetchSnapshotServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	_, err := client.FetchSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFetchSnapshotMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":`))
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	_, err := client.FetchSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFetchSnapshotEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	_, err := client.FetchSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFetchSnapshotEmptyObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	_, err := client.FetchSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFetchSnapshotUnreachableHost(t *testing.T) {
	client := NewCoinGeckoClient(upstreamConfig("http://127.0.0.1:1"))

	_, err := client.FetchSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFetchOHLCNormalizesSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/ohlc", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "7", r.URL.Query().Get("days"))

		// Out of order with one duplicate timestamp
		w.Write([]byte(`[
			[3000,31,32,30,31.5],
			[1000,30,31,29,30.5],
			[2000,30.5,31.5,30,31],
			[2000,30.6,31.6,30.1,31.1]
		]`))
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	series, err := client.FetchOHLC(context.Background(), models.AssetBitcoin, 7)
	require.NoError(t, err)
	require.Len(t, series, 3, "duplicate timestamps collapse to one candle")

	assert.Equal(t, int64(1000), series[0].Timestamp())
	assert.Equal(t, int64(2000), series[1].Timestamp())
	assert.Equal(t, int64(3000), series[2].Timestamp())
	assert.Equal(t, 30.6, series[1].Open(), "last duplicate wins")
}

func TestFetchOHLCUsesProviderID(t *testing.T) {
	var gotPath atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		w.Write([]byte(`[[1000,0.7,0.71,0.69,0.7]]`))
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	_, err := client.FetchOHLC(context.Background(), models.AssetRipple, 1)
	require.NoError(t, err)
	assert.Equal(t, "/coins/ripple/ohlc", gotPath.Load())
}

func TestFetchOHLCEmptySeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	_, err := client.FetchOHLC(context.Background(), models.AssetBitcoin, 7)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFetchOrderBookUsesSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order_book", r.URL.Path)
		assert.Equal(t, "SOL", r.URL.Query().Get("symbol"))

		w.Write([]byte(`{"bids":[[40.1,10],[40.0,12]],"asks":[[40.2,8],[40.3,15]]}`))
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	book, err := client.FetchOrderBook(context.Background(), models.AssetSolana)
	require.NoError(t, err)

	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 2)
	assert.Equal(t, 40.1, book.Bids[0].Price())
	assert.Equal(t, 40.2, book.Asks[0].Price())
}

func TestFetchOrderBookRejectsUnsorted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Bids ascending instead of descending
		w.Write([]byte(`{"bids":[[40.0,10],[40.1,12]],"asks":[[40.2,8],[40.3,15]]}`))
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	_, err := client.FetchOrderBook(context.Background(), models.AssetSolana)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFetchOrderBookEmptySide(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bids":[],"asks":[[40.2,8]]}`))
	}))
	defer server.Close()

	client := NewCoinGeckoClient(upstreamConfig(server.URL))

	_, err := client.FetchOrderBook(context.Background(), models.AssetSolana)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestClientOmitsAPIKeyHeaderWhenUnset(t *testing.T) {
	var sawHeader atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["X-Cg-Pro-Api-Key"]; ok {
			sawHeader.Store(true)
		}
		w.Write([]byte(`{"bitcoin":{"usd":1}}`))
	}))
	defer server.Close()

	cfg := upstreamConfig(server.URL)
	cfg.APIKey = ""
	client := NewCoinGeckoClient(cfg)

	assert.False(t, client.HasAPIKey())

	_, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, sawHeader.Load(), "no key header when none is configured")
}
