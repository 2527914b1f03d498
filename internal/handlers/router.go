package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Kipngetichbrian48/Bidance/internal/services"
)

// Router handles HTTP routing setup
type Router struct {
	marketHandler *MarketHandler
	adminHandler  *AdminHandler
	healthHandler *HealthHandler
}

// NewRouter creates a new Router instance with all handlers
func NewRouter(marketService services.MarketServiceInterface, healthHandler *HealthHandler) *Router {
	return &Router{
		marketHandler: NewMarketHandler(marketService),
		adminHandler:  NewAdminHandler(marketService),
		healthHandler: healthHandler,
	}
}

// SetupAPIRoutes configures the authenticated API routes on the given group
func (r *Router) SetupAPIRoutes(api *gin.RouterGroup) {
	api.GET("/price", r.marketHandler.GetPrices)
	api.GET("/ohlc", r.marketHandler.GetOHLC)
	api.GET("/orderbook", r.marketHandler.GetOrderBook)

	// The original dashboard hit this with GET; POST is the sensible verb,
	// so both are routed.
	api.GET("/clear-cache", r.adminHandler.ClearCache)
	api.POST("/clear-cache", r.adminHandler.ClearCache)
}

// SetupHealthRoutes configures health check routes
func (r *Router) SetupHealthRoutes(engine *gin.Engine) {
	health := engine.Group("/health")
	{
		health.GET("", r.healthHandler.GetHealth)
		health.GET("/live", r.healthHandler.GetLiveness)
		health.GET("/ready", r.healthHandler.GetReadiness)
		health.GET("/db", r.healthHandler.GetDatabaseHealth)
	}
}
