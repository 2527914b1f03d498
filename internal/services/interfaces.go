package services

import (
	"context"

	"github.com/Kipngetichbrian48/Bidance/internal/models"
)

// TokenVerifierInterface defines the identity collaborator: it turns an opaque
// bearer token into a verified subject or a failure.
type TokenVerifierInterface interface {
	VerifyToken(ctx context.Context, token string) (*models.APIToken, error)
}

// MarketDataProviderInterface defines the upstream market-data client. Each
// call performs exactly one network request.
type MarketDataProviderInterface interface {
	FetchSnapshot(ctx context.Context) (models.Snapshot, error)
	FetchOHLC(ctx context.Context, asset models.Asset, days int) (models.OHLCSeries, error)
	FetchOrderBook(ctx context.Context, asset models.Asset) (*models.OrderBook, error)
}

// MarketServiceInterface defines the cache-fronted market-data operations
type MarketServiceInterface interface {
	GetSnapshot(ctx context.Context) (models.Snapshot, models.DataSource, error)
	GetOHLC(ctx context.Context, asset models.Asset, days int) (models.OHLCSeries, models.DataSource, error)
	GetOrderBook(ctx context.Context, asset models.Asset) (*models.OrderBook, models.DataSource, error)
	ClearCache()
}
