package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kipngetichbrian48/Bidance/internal/services"
	"github.com/Kipngetichbrian48/Bidance/pkg/logger"
)

// AdminHandler handles administrative endpoints
type AdminHandler struct {
	marketService services.MarketServiceInterface
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(marketService services.MarketServiceInterface) *AdminHandler {
	return &AdminHandler{
		marketService: marketService,
	}
}

// ClearCache handles GET/POST /api/clear-cache requests. Clearing an already
// empty cache is a success.
func (h *AdminHandler) ClearCache(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	h.marketService.ClearCache()

	log.Info("Cache cleared by administrative request")

	c.JSON(http.StatusOK, gin.H{
		"message": "Cache cleared",
	})
}
