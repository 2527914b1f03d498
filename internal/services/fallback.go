package services

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Kipngetichbrian48/Bidance/internal/models"
)

const (
	// candleInterval is the fixed synthetic sampling interval, so a series
	// holds days * (24 / 4) = days * 6 candles
	candleInterval = 4 * time.Hour
	candlesPerDay  = int(24 * time.Hour / candleInterval)

	// bookDepth is the number of levels generated per order-book side
	bookDepth = 20
)

// FallbackGenerator produces synthetic market data shaped exactly like live
// payloads. Values random-walk around each asset's base price so magnitudes
// look right for the asset; repeated calls need not be identical.
type FallbackGenerator struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// NewFallbackGenerator creates a generator seeded from the current time
func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewFallbackGeneratorWithSeed creates a deterministic generator for tests
func NewFallbackGeneratorWithSeed(seed int64) *FallbackGenerator {
	return &FallbackGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// float64 returns a uniform value in [0, 1) under the generator's lock
func (g *FallbackGenerator) float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// Snapshot generates current prices for every supported asset, each within
// ±2% of its base price.
func (g *FallbackGenerator) Snapshot(now time.Time) models.Snapshot {
	snapshot := make(models.Snapshot, len(models.SupportedAssets))
	for asset, info := range models.SupportedAssets {
		noise := (g.float64()*2 - 1) * 0.02
		snapshot[string(asset)] = models.AssetPrice{USD: info.BasePrice * (1 + noise)}
	}
	return snapshot
}

// OHLC generates days*6 candles at the fixed 4-hour interval ending at now,
// as a smooth random walk around the asset's base price. Timestamps are in
// milliseconds, strictly ascending and unique; every candle satisfies
// low <= min(open, close) and high >= max(open, close).
func (g *FallbackGenerator) OHLC(asset models.Asset, days int, now time.Time) models.OHLCSeries {
	info := models.SupportedAssets[asset]
	points := days * candlesPerDay

	end := now.Truncate(candleInterval)
	start := end.Add(-time.Duration(points-1) * candleInterval)

	series := make(models.OHLCSeries, 0, points)
	price := info.BasePrice

	for i := 0; i < points; i++ {
		ts := start.Add(time.Duration(i) * candleInterval)

		open := price
		drift := (g.float64()*2 - 1) * 0.015 * open
		closing := open + drift
		if closing <= 0 {
			closing = open * 0.99
		}

		wick := g.float64() * 0.005 * open
		high := maxFloat(open, closing) + wick
		low := minFloat(open, closing) - wick
		if low <= 0 {
			low = minFloat(open, closing) * 0.99
		}

		series = append(series, models.Candle{
			float64(ts.UnixMilli()),
			open,
			high,
			low,
			closing,
		})

		price = closing
	}

	return series
}

// OrderBook generates bookDepth bids strictly below and bookDepth asks
// strictly above a reference price near the asset's base, each side stepping
// monotonically away from the reference. Bids come out descending, asks
// ascending.
func (g *FallbackGenerator) OrderBook(asset models.Asset, now time.Time) *models.OrderBook {
	info := models.SupportedAssets[asset]

	noise := (g.float64()*2 - 1) * 0.01
	reference := info.BasePrice * (1 + noise)

	book := &models.OrderBook{
		Bids: make([]models.PriceLevel, 0, bookDepth),
		Asks: make([]models.PriceLevel, 0, bookDepth),
	}

	bidOffset := 0.0
	askOffset := 0.0
	for i := 0; i < bookDepth; i++ {
		// Each level steps 0.05%-0.15% of the reference further out
		bidOffset += reference * (0.0005 + g.float64()*0.001)
		askOffset += reference * (0.0005 + g.float64()*0.001)

		book.Bids = append(book.Bids, models.PriceLevel{
			reference - bidOffset,
			g.levelSize(reference),
		})
		book.Asks = append(book.Asks, models.PriceLevel{
			reference + askOffset,
			g.levelSize(reference),
		})
	}

	return book
}

// levelSize sizes a level so its notional value lands between roughly $1k and
// $10k regardless of the asset's price magnitude.
func (g *FallbackGenerator) levelSize(price float64) float64 {
	notional := 1000 + g.float64()*9000
	return notional / price
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
