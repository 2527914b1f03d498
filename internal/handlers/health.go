package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kipngetichbrian48/Bidance/internal/services"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	dbHealthChecker *services.DatabaseHealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(dbHealthChecker *services.DatabaseHealthChecker) *HealthHandler {
	return &HealthHandler{
		dbHealthChecker: dbHealthChecker,
	}
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    services.HealthStatus            `json:"status"`
	Timestamp time.Time                        `json:"timestamp"`
	Services  map[string]*services.HealthCheck `json:"services"`
	Version   string                           `json:"version,omitempty"`
}

// GetHealth returns the overall health status
func (h *HealthHandler) GetHealth(c *gin.Context) {
	dbCheck := h.dbHealthChecker.CheckHealth()

	overallStatus := dbCheck.Status

	statusCode := http.StatusOK
	if overallStatus == services.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Services:  map[string]*services.HealthCheck{"mongodb": dbCheck},
		Version:   "1.0.0",
	})
}

// GetLiveness returns a simple liveness check
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// GetReadiness reports whether the token store is reachable. Upstream
// reachability is deliberately not part of readiness: the service degrades to
// synthetic data and keeps serving.
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	dbHealth := h.dbHealthChecker.CheckHealth()

	if dbHealth.Status == services.HealthStatusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not_ready",
			"message":   "token store not available",
			"timestamp": time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// GetDatabaseHealth returns detailed database health information
func (h *HealthHandler) GetDatabaseHealth(c *gin.Context) {
	healthCheck := h.dbHealthChecker.CheckHealth()

	statusCode := http.StatusOK
	if healthCheck.Status == services.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, healthCheck)
}
