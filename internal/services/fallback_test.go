package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kipngetichbrian48/Bidance/internal/models"
)

func TestFallbackSnapshotCoversAllAssets(t *testing.T) {
	gen := NewFallbackGeneratorWithSeed(1)

	snapshot := gen.Snapshot(time.Now())

	require.Len(t, snapshot, len(models.SupportedAssets))
	for asset, info := range models.SupportedAssets {
		price, ok := snapshot[string(asset)]
		require.True(t, ok, "snapshot missing %s", asset)
		assert.Greater(t, price.USD, 0.0)
		assert.InEpsilon(t, info.BasePrice, price.USD, 0.021,
			"%s price should stay within 2%% of base", asset)
	}
}

func TestFallbackOHLCSeriesLength(t *testing.T) {
	gen := NewFallbackGeneratorWithSeed(2)
	now := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)

	for _, asset := range models.AssetList() {
		for days := range models.SupportedDays {
			series := gen.OHLC(asset, days, now)
			assert.Len(t, series, days*6,
				"%s over %d days should yield %d candles", asset, days, days*6)
		}
	}
}

func TestFallbackOHLCTimestampsStrictlyAscending(t *testing.T) {
	gen := NewFallbackGeneratorWithSeed(3)
	now := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)

	series := gen.OHLC(models.AssetBitcoin, 7, now)
	require.Len(t, series, 42)

	for i := 1; i < len(series); i++ {
		assert.Greater(t, series[i].Timestamp(), series[i-1].Timestamp(),
			"timestamps must be strictly ascending at index %d", i)
		assert.Equal(t, int64(4*time.Hour/time.Millisecond),
			series[i].Timestamp()-series[i-1].Timestamp(),
			"candles should be spaced 4 hours apart")
	}

	// Series ends at now truncated to the candle interval
	end := now.Truncate(4 * time.Hour)
	assert.Equal(t, end.UnixMilli(), series[len(series)-1].Timestamp())
}

func TestFallbackOHLCCandleConsistency(t *testing.T) {
	gen := NewFallbackGeneratorWithSeed(4)
	now := time.Now()

	for _, asset := range models.AssetList() {
		series := gen.OHLC(asset, 30, now)
		for i, candle := range series {
			open, high, low, closing := candle.Open(), candle.High(), candle.Low(), candle.Close()

			assert.Greater(t, low, 0.0, "%s candle %d low must be positive", asset, i)
			assert.LessOrEqual(t, low, minFloat(open, closing),
				"%s candle %d low must not exceed open/close", asset, i)
			assert.GreaterOrEqual(t, high, maxFloat(open, closing),
				"%s candle %d high must cover open/close", asset, i)
		}
	}
}

func TestFallbackOHLCWalksFromBasePrice(t *testing.T) {
	gen := NewFallbackGeneratorWithSeed(5)

	series := gen.OHLC(models.AssetBitcoin, 7, time.Now())
	base := models.SupportedAssets[models.AssetBitcoin].BasePrice

	assert.Equal(t, base, series[0].Open(), "walk starts at the base price")

	// Consecutive candles chain: each open equals the previous close
	for i := 1; i < len(series); i++ {
		assert.Equal(t, series[i-1].Close(), series[i].Open(),
			"candle %d open should equal previous close", i)
	}
}

func TestFallbackOrderBookStructure(t *testing.T) {
	gen := NewFallbackGeneratorWithSeed(6)

	for _, asset := range models.AssetList() {
		book := gen.OrderBook(asset, time.Now())

		require.Len(t, book.Bids, bookDepth)
		require.Len(t, book.Asks, bookDepth)

		assert.Less(t, book.Bids[0].Price(), book.Asks[0].Price(),
			"%s best bid must sit below best ask", asset)

		for i := 1; i < bookDepth; i++ {
			assert.Less(t, book.Bids[i].Price(), book.Bids[i-1].Price(),
				"%s bids must descend at level %d", asset, i)
			assert.Greater(t, book.Asks[i].Price(), book.Asks[i-1].Price(),
				"%s asks must ascend at level %d", asset, i)
		}

		for i := 0; i < bookDepth; i++ {
			assert.Greater(t, book.Bids[i].Price(), 0.0)
			assert.Greater(t, book.Bids[i].Size(), 0.0)
			assert.Greater(t, book.Asks[i].Size(), 0.0)
		}
	}
}

func TestFallbackOrderBookSizesScaleWithPrice(t *testing.T) {
	gen := NewFallbackGeneratorWithSeed(7)

	btc := gen.OrderBook(models.AssetBitcoin, time.Now())
	xrp := gen.OrderBook(models.AssetRipple, time.Now())

	// Notional per level is bounded, so cheap assets trade in far larger sizes
	assert.Greater(t, xrp.Bids[0].Size(), btc.Bids[0].Size())
}
