package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kipngetichbrian48/Bidance/internal/models"
	"github.com/Kipngetichbrian48/Bidance/internal/services"
	"github.com/Kipngetichbrian48/Bidance/pkg/logger"
)

// dataSourceHeader tags each response with where the payload came from, since
// live and synthetic payloads are otherwise indistinguishable by shape.
const dataSourceHeader = "X-Data-Source"

// MarketHandler handles market-data HTTP requests
type MarketHandler struct {
	marketService services.MarketServiceInterface
}

// NewMarketHandler creates a new MarketHandler instance
func NewMarketHandler(marketService services.MarketServiceInterface) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
	}
}

// GetPrices handles GET /api/price requests: current USD prices for all
// supported assets.
func (h *MarketHandler) GetPrices(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	snapshot, source, err := h.marketService.GetSnapshot(c.Request.Context())
	if err != nil {
		log.Error("Failed to resolve price snapshot", zap.Error(err))
		models.HandleError(c, models.NewAppErrorWithCause(
			models.ErrorCodeInternalError,
			"Failed to fetch prices",
			err,
		), log)
		return
	}

	c.Header(dataSourceHeader, string(source))
	c.JSON(http.StatusOK, snapshot)
}

// GetOHLC handles GET /api/ohlc?asset=bitcoin&days=7 requests
func (h *MarketHandler) GetOHLC(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	asset, ok := parseAssetParam(c, log)
	if !ok {
		return
	}

	daysRaw := c.DefaultQuery("days", "7")
	days, err := strconv.Atoi(daysRaw)
	if err != nil || !models.SupportedDays[days] {
		log.Warn("Unsupported days parameter", zap.String("days", daysRaw))

		appErr := models.NewAppErrorWithDetails(
			models.ErrorCodeInvalidDays,
			"Unsupported days parameter",
			"Supported values: 1, 7, 14, 30, 90",
		)
		models.HandleError(c, appErr, log)
		return
	}

	series, source, err := h.marketService.GetOHLC(c.Request.Context(), asset, days)
	if err != nil {
		log.Error("Failed to resolve OHLC series",
			zap.Error(err),
			zap.String("asset", string(asset)),
			zap.Int("days", days),
		)
		models.HandleError(c, models.NewAppErrorWithCause(
			models.ErrorCodeInternalError,
			"Failed to fetch OHLC data",
			err,
		), log)
		return
	}

	c.Header(dataSourceHeader, string(source))
	c.JSON(http.StatusOK, series)
}

// GetOrderBook handles GET /api/orderbook?asset=bitcoin requests
func (h *MarketHandler) GetOrderBook(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	asset, ok := parseAssetParam(c, log)
	if !ok {
		return
	}

	book, source, err := h.marketService.GetOrderBook(c.Request.Context(), asset)
	if err != nil {
		log.Error("Failed to resolve order book",
			zap.Error(err),
			zap.String("asset", string(asset)),
		)
		models.HandleError(c, models.NewAppErrorWithCause(
			models.ErrorCodeInternalError,
			"Failed to fetch order book",
			err,
		), log)
		return
	}

	c.Header(dataSourceHeader, string(source))
	c.JSON(http.StatusOK, book)
}

// parseAssetParam validates the asset query parameter before any cache or
// network activity. Returns false after writing the error response.
func parseAssetParam(c *gin.Context, log *logger.Logger) (models.Asset, bool) {
	raw := c.Query("asset")
	if raw == "" {
		appErr := models.NewAppErrorWithDetails(
			models.ErrorCodeInvalidRequest,
			"Missing asset parameter",
			"Provide ?asset=<identifier>",
		)
		models.HandleError(c, appErr, log)
		return "", false
	}

	asset, ok := models.ParseAsset(raw)
	if !ok {
		log.Warn("Unsupported asset requested", zap.String("asset", raw))

		appErr := models.NewAppErrorWithDetails(
			models.ErrorCodeInvalidAsset,
			"Unsupported asset",
			"Asset: "+raw,
		).WithContext("asset", raw)
		models.HandleError(c, appErr, log)
		return "", false
	}

	return asset, true
}
