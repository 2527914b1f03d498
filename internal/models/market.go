package models

import "fmt"

// Asset identifies one of the supported cryptocurrencies. The values double as
// the provider's coin IDs; ticker symbols for the order-book endpoint live in
// the asset table so the remapping is defined in exactly one place.
type Asset string

const (
	AssetBitcoin  Asset = "bitcoin"
	AssetEthereum Asset = "ethereum"
	AssetLitecoin Asset = "litecoin"
	AssetRipple   Asset = "ripple"
	AssetCardano  Asset = "cardano"
	AssetSolana   Asset = "solana"
)

// AssetInfo carries the canonical provider mapping and the reference price the
// synthetic generator scales its output around.
type AssetInfo struct {
	ProviderID string
	Symbol     string
	BasePrice  float64
}

// SupportedAssets is the canonical asset table. Requests for anything else are
// rejected before cache or network activity.
var SupportedAssets = map[Asset]AssetInfo{
	AssetBitcoin:  {ProviderID: "bitcoin", Symbol: "BTC", BasePrice: 30000},
	AssetEthereum: {ProviderID: "ethereum", Symbol: "ETH", BasePrice: 1800},
	AssetLitecoin: {ProviderID: "litecoin", Symbol: "LTC", BasePrice: 90},
	AssetRipple:   {ProviderID: "ripple", Symbol: "XRP", BasePrice: 0.7},
	AssetCardano:  {ProviderID: "cardano", Symbol: "ADA", BasePrice: 0.5},
	AssetSolana:   {ProviderID: "solana", Symbol: "SOL", BasePrice: 40},
}

// AssetList returns the supported assets in a stable order, used for building
// the provider's ids query parameter and full snapshots.
func AssetList() []Asset {
	return []Asset{
		AssetBitcoin,
		AssetEthereum,
		AssetLitecoin,
		AssetRipple,
		AssetCardano,
		AssetSolana,
	}
}

// ParseAsset validates a raw asset identifier
func ParseAsset(raw string) (Asset, bool) {
	asset := Asset(raw)
	_, ok := SupportedAssets[asset]
	return asset, ok
}

// SupportedDays are the accepted OHLC range parameters: 1 for intraday,
// otherwise 7/14/30/90 days.
var SupportedDays = map[int]bool{1: true, 7: true, 14: true, 30: true, 90: true}

// AssetPrice is the per-asset entry of a price snapshot
type AssetPrice struct {
	USD float64 `json:"usd"`
}

// Snapshot maps asset identifiers to their current USD price
type Snapshot map[string]AssetPrice

// Candle is one OHLC bar serialized as [timestamp_ms, open, high, low, close],
// the array form charting clients consume.
type Candle [5]float64

// Timestamp returns the candle's timestamp in milliseconds
func (c Candle) Timestamp() int64 { return int64(c[0]) }

// Open returns the candle's opening price
func (c Candle) Open() float64 { return c[1] }

// High returns the candle's highest price
func (c Candle) High() float64 { return c[2] }

// Low returns the candle's lowest price
func (c Candle) Low() float64 { return c[3] }

// Close returns the candle's closing price
func (c Candle) Close() float64 { return c[4] }

// OHLCSeries is an ascending-timestamp sequence of candles
type OHLCSeries []Candle

// PriceLevel is one order-book entry serialized as [price, size]
type PriceLevel [2]float64

// Price returns the level's price
func (l PriceLevel) Price() float64 { return l[0] }

// Size returns the level's size
func (l PriceLevel) Size() float64 { return l[1] }

// OrderBook holds bids sorted descending and asks sorted ascending by price
type OrderBook struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// DataSource tags where a payload came from. The payload shape is identical
// either way; the tag is surfaced in the X-Data-Source response header only.
type DataSource string

const (
	SourceLive      DataSource = "live"
	SourceSynthetic DataSource = "synthetic"
	SourceCache     DataSource = "cache"
)

// Cache key builders. Key format is resource type + asset + range.

// PriceCacheKey returns the cache key for the full price snapshot
func PriceCacheKey() string { return "price:all" }

// OHLCCacheKey returns the cache key for an OHLC series
func OHLCCacheKey(asset Asset, days int) string {
	return fmt.Sprintf("ohlc:%s:%d", asset, days)
}

// OrderBookCacheKey returns the cache key for an order book
func OrderBookCacheKey(asset Asset) string {
	return fmt.Sprintf("book:%s", asset)
}
