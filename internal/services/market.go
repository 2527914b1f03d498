package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Kipngetichbrian48/Bidance/internal/config"
	"github.com/Kipngetichbrian48/Bidance/internal/models"
	"github.com/Kipngetichbrian48/Bidance/pkg/cache"
	"github.com/Kipngetichbrian48/Bidance/pkg/keylock"
	"github.com/Kipngetichbrian48/Bidance/pkg/logger"
	"github.com/Kipngetichbrian48/Bidance/pkg/metrics"
	"github.com/Kipngetichbrian48/Bidance/pkg/retry"
)

// MarketService orchestrates cache, retry, upstream, and fallback for every
// market-data resource. Every failure path past validation resolves to a
// response: upstream trouble degrades to synthetic data, never to an error.
type MarketService struct {
	provider    MarketDataProviderInterface
	fallback    *FallbackGenerator
	cache       *cache.Cache
	locks       *keylock.KeyLock
	retryPolicy *retry.Policy
	metrics     *metrics.MetricsCollector
	config      *config.Config
}

// NewMarketService creates a MarketService with its cache and lock table
func NewMarketService(provider MarketDataProviderInterface, cfg *config.Config) *MarketService {
	return &MarketService{
		provider: provider,
		fallback: NewFallbackGenerator(),
		cache:    cache.New(cfg.Cache.SweepInterval),
		locks:    keylock.New(cfg.Cache.SweepInterval),
		retryPolicy: &retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			Factor:      cfg.Retry.Factor,
		},
		metrics: metrics.NewMetricsCollector(),
		config:  cfg,
	}
}

// GetSnapshot returns current USD prices for all supported assets
func (s *MarketService) GetSnapshot(ctx context.Context) (models.Snapshot, models.DataSource, error) {
	return resolve(ctx, s, models.PriceCacheKey(), s.config.Cache.PriceTTL,
		func(ctx context.Context) (models.Snapshot, error) {
			return s.provider.FetchSnapshot(ctx)
		},
		func() models.Snapshot {
			return s.fallback.Snapshot(time.Now())
		},
	)
}

// GetOHLC returns an OHLC series for a validated asset and day range
func (s *MarketService) GetOHLC(ctx context.Context, asset models.Asset, days int) (models.OHLCSeries, models.DataSource, error) {
	return resolve(ctx, s, models.OHLCCacheKey(asset, days), s.config.Cache.OHLCTTL,
		func(ctx context.Context) (models.OHLCSeries, error) {
			return s.provider.FetchOHLC(ctx, asset, days)
		},
		func() models.OHLCSeries {
			return s.fallback.OHLC(asset, days, time.Now())
		},
	)
}

// GetOrderBook returns order-book depth for a validated asset
func (s *MarketService) GetOrderBook(ctx context.Context, asset models.Asset) (*models.OrderBook, models.DataSource, error) {
	return resolve(ctx, s, models.OrderBookCacheKey(asset), s.config.Cache.OrderBookTTL,
		func(ctx context.Context) (*models.OrderBook, error) {
			return s.provider.FetchOrderBook(ctx, asset)
		},
		func() *models.OrderBook {
			return s.fallback.OrderBook(asset, time.Now())
		},
	)
}

// resolve runs the per-resource state machine: cache check, single-flight
// lock, deadline-bounded retried fetch, fallback, write-through. A synthetic
// payload is cached with the same TTL as a live one, so later reads cannot
// tell them apart.
func resolve[T any](ctx context.Context, s *MarketService, key string, ttl time.Duration, fetch func(context.Context) (T, error), synthesize func() T) (T, models.DataSource, error) {
	log := logger.GetLogger().WithContext(ctx).WithFields(map[string]interface{}{
		"cache_key": key,
		"component": "market_service",
	})

	if value, found := s.cache.Get(key); found {
		if payload, ok := value.(T); ok {
			log.Debug("Cache hit")
			s.metrics.RecordCacheHit()
			return payload, models.SourceCache, nil
		}
	}

	log.Debug("Cache miss, acquiring key lock")
	s.metrics.RecordCacheMiss()

	lockStart := time.Now()
	unlock := s.locks.Lock(key)
	defer unlock()

	if time.Since(lockStart) > time.Millisecond {
		s.metrics.RecordLockWait()
	}

	// Double-check after acquiring the lock: a concurrent miss may have
	// already populated the entry.
	if value, found := s.cache.Get(key); found {
		if payload, ok := value.(T); ok {
			log.Debug("Cache hit after lock acquisition")
			s.metrics.RecordCacheHit()
			return payload, models.SourceCache, nil
		}
	}

	// No API key configured means the provider is never called
	if s.config.Upstream.APIKey == "" {
		log.Debug("No upstream API key configured, serving synthetic data")
		payload := synthesize()
		s.cache.Put(key, payload, ttl)
		s.metrics.RecordFallback()
		return payload, models.SourceSynthetic, nil
	}

	// Overall deadline across all attempts, independent of the per-attempt
	// timeout inside the upstream client
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.Upstream.FetchDeadline)
	defer cancel()

	payload, err := retry.Do(fetchCtx, s.retryPolicy,
		func(err error) bool { return errors.Is(err, ErrRateLimited) },
		func(ctx context.Context) (T, error) {
			callStart := time.Now()
			result, callErr := fetch(ctx)
			s.metrics.RecordUpstreamCall(time.Since(callStart), callErr == nil)
			if errors.Is(callErr, ErrRateLimited) {
				s.metrics.RecordUpstreamRateLimit()
			}
			return result, callErr
		},
	)

	if err == nil {
		log.Debug("Upstream fetch succeeded, caching result")
		s.cache.Put(key, payload, ttl)
		return payload, models.SourceLive, nil
	}

	log.Warn("Upstream fetch failed, serving synthetic data", zap.Error(err))

	payload = synthesize()
	s.cache.Put(key, payload, ttl)
	s.metrics.RecordFallback()

	return payload, models.SourceSynthetic, nil
}

// ClearCache wipes every cached entry. Safe when the cache is already empty.
func (s *MarketService) ClearCache() {
	s.cache.Clear()
	logger.GetLogger().Info("Cache cleared")
}

// CacheSize returns the number of cached entries
func (s *MarketService) CacheSize() int {
	return s.cache.Size()
}

// GetMetricsCollector returns the metrics collector for middleware integration
func (s *MarketService) GetMetricsCollector() *metrics.MetricsCollector {
	return s.metrics
}

// GetPerformanceStats returns comprehensive performance statistics
func (s *MarketService) GetPerformanceStats() map[string]interface{} {
	m := s.metrics.GetMetrics()

	return map[string]interface{}{
		"uptime":                   s.metrics.GetUptime().String(),
		"total_requests":           m.TotalRequests,
		"successful_requests":      m.SuccessfulRequests,
		"failed_requests":          m.FailedRequests,
		"success_rate_percent":     s.metrics.GetSuccessRate(),
		"average_response_time_ms": m.AverageResponseTime.Milliseconds(),
		"cache_hits":               m.CacheHits,
		"cache_misses":             m.CacheMisses,
		"cache_hit_ratio_percent":  s.metrics.GetCacheHitRatio(),
		"cache_size":               s.cache.Size(),
		"upstream_calls":           m.UpstreamCalls,
		"upstream_failures":        m.UpstreamFailures,
		"upstream_rate_limits":     m.UpstreamRateLimits,
		"average_upstream_time_ms": m.AverageUpstreamTime.Milliseconds(),
		"fallback_served":          m.FallbackServed,
		"active_requests":          m.ActiveRequests,
		"lock_waits":               m.LockWaits,
		"lock_count":               s.locks.Size(),
	}
}

// Stop gracefully shuts down the service
func (s *MarketService) Stop() {
	s.cache.Stop()
	s.locks.Stop()
}
