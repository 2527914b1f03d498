package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	payload := map[string]float64{"bitcoin": 30000}
	c.Put("price:all", payload, time.Minute)

	got, found := c.Get("price:all")
	require.True(t, found)
	assert.Equal(t, payload, got)
}

func TestCacheMiss(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	_, found := c.Get("ohlc:bitcoin:7")
	assert.False(t, found)
}

func TestCacheExpiry(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Put("book:solana", "payload", 20*time.Millisecond)

	_, found := c.Get("book:solana")
	require.True(t, found)

	time.Sleep(40 * time.Millisecond)

	_, found = c.Get("book:solana")
	assert.False(t, found, "entry should be invisible after its TTL elapses")
}

func TestCachePerEntryTTL(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Put("short", 1, 20*time.Millisecond)
	c.Put("long", 2, time.Minute)

	time.Sleep(40 * time.Millisecond)

	_, found := c.Get("short")
	assert.False(t, found)

	got, found := c.Get("long")
	require.True(t, found)
	assert.Equal(t, 2, got)
}

func TestCacheOverwrite(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Put("price:all", "stale", time.Minute)
	c.Put("price:all", "fresh", time.Minute)

	got, found := c.Get("price:all")
	require.True(t, found)
	assert.Equal(t, "fresh", got)
	assert.Equal(t, 1, c.Size())
}

func TestCacheClearIsIdempotent(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Put("a", 1, time.Minute)
	c.Put("b", 2, time.Minute)
	require.Equal(t, 2, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())

	// Clearing an already-empty cache must not panic or error.
	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestCacheSweepRemovesExpired(t *testing.T) {
	c := New(20 * time.Millisecond)
	defer c.Stop()

	c.Put("a", 1, 10*time.Millisecond)

	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 0, c.Size())
}

func TestCacheStopTwice(t *testing.T) {
	c := New(time.Minute)
	c.Stop()
	c.Stop()
}
