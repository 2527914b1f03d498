package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Kipngetichbrian48/Bidance/internal/config"
	"github.com/Kipngetichbrian48/Bidance/internal/models"
)

var (
	// ErrRateLimited is the only retryable upstream failure (HTTP 429)
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrUpstream covers every other upstream failure: non-2xx status,
	// malformed or empty body, network error, timeout
	ErrUpstream = errors.New("upstream unavailable")
)

// CoinGeckoClient issues single GET requests against the market-data provider.
// It never retries; the retry policy wraps it at the orchestrator level.
type CoinGeckoClient struct {
	httpClient *http.Client
	config     *config.UpstreamConfig
}

// NewCoinGeckoClient creates an upstream client with a bounded per-request timeout
func NewCoinGeckoClient(cfg *config.UpstreamConfig) *CoinGeckoClient {
	return &CoinGeckoClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
	}
}

// HasAPIKey reports whether an upstream API key is configured
func (c *CoinGeckoClient) HasAPIKey() bool {
	return c.config.APIKey != ""
}

// get performs exactly one GET and decodes the JSON body into out
func (c *CoinGeckoClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrUpstream, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", ErrUpstream)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: malformed body: %v", ErrUpstream, err)
	}

	return nil
}

// FetchSnapshot fetches current USD prices for all supported assets
func (c *CoinGeckoClient) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	ids := make([]string, 0, len(models.AssetList()))
	for _, asset := range models.AssetList() {
		ids = append(ids, models.SupportedAssets[asset].ProviderID)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")

	var snapshot models.Snapshot
	if err := c.get(ctx, "/simple/price", query, &snapshot); err != nil {
		return nil, err
	}

	if len(snapshot) == 0 {
		return nil, fmt.Errorf("%w: empty price data", ErrUpstream)
	}

	return snapshot, nil
}

// FetchOHLC fetches an OHLC series for one asset over the given day range.
// The returned series is normalized: ascending timestamps, duplicates dropped
// keeping the latest entry.
func (c *CoinGeckoClient) FetchOHLC(ctx context.Context, asset models.Asset, days int) (models.OHLCSeries, error) {
	info := models.SupportedAssets[asset]

	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("days", strconv.Itoa(days))

	var series models.OHLCSeries
	if err := c.get(ctx, "/coins/"+info.ProviderID+"/ohlc", query, &series); err != nil {
		return nil, err
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty OHLC data", ErrUpstream)
	}

	return normalizeSeries(series), nil
}

// FetchOrderBook fetches order-book depth for one asset using its ticker symbol
func (c *CoinGeckoClient) FetchOrderBook(ctx context.Context, asset models.Asset) (*models.OrderBook, error) {
	info := models.SupportedAssets[asset]

	query := url.Values{}
	query.Set("symbol", info.Symbol)
	query.Set("depth", "20")

	var book models.OrderBook
	if err := c.get(ctx, "/order_book", query, &book); err != nil {
		return nil, err
	}

	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil, fmt.Errorf("%w: empty order book", ErrUpstream)
	}
	if !bidsDescending(book.Bids) || !asksAscending(book.Asks) {
		return nil, fmt.Errorf("%w: unsorted order book", ErrUpstream)
	}

	return &book, nil
}

// normalizeSeries sorts candles ascending by timestamp and collapses duplicate
// timestamps keeping the last occurrence.
func normalizeSeries(series models.OHLCSeries) models.OHLCSeries {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp() < series[j].Timestamp()
	})

	normalized := series[:0]
	for _, candle := range series {
		if n := len(normalized); n > 0 && normalized[n-1].Timestamp() == candle.Timestamp() {
			normalized[n-1] = candle
			continue
		}
		normalized = append(normalized, candle)
	}

	return normalized
}

func bidsDescending(levels []models.PriceLevel) bool {
	for i := 1; i < len(levels); i++ {
		if levels[i].Price() > levels[i-1].Price() {
			return false
		}
	}
	return true
}

func asksAscending(levels []models.PriceLevel) bool {
	for i := 1; i < len(levels); i++ {
		if levels[i].Price() < levels[i-1].Price() {
			return false
		}
	}
	return true
}
