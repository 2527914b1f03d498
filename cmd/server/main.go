package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Kipngetichbrian48/Bidance/internal/config"
	"github.com/Kipngetichbrian48/Bidance/internal/handlers"
	"github.com/Kipngetichbrian48/Bidance/internal/middleware"
	"github.com/Kipngetichbrian48/Bidance/internal/services"
	"github.com/Kipngetichbrian48/Bidance/pkg/logger"
	"github.com/Kipngetichbrian48/Bidance/pkg/ratelimiter"
)

// Server represents the main application server
type Server struct {
	httpServer      *http.Server
	config          *config.Config
	tokenVerifier   *services.TokenVerifier
	upstreamClient  *services.CoinGeckoClient
	marketService   *services.MarketService
	dbHealthChecker *services.DatabaseHealthChecker
	rateLimiter     *ratelimiter.RateLimiter
	router          *handlers.Router
}

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	loggerConfig := &logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		OutputPaths: cfg.Logging.OutputPaths,
	}

	if err := logger.Initialize(loggerConfig); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.GetLogger()

	log.Info("Starting Bidance market API server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("upstream_base_url", cfg.Upstream.BaseURL),
		zap.Bool("upstream_api_key_set", cfg.Upstream.APIKey != ""),
		zap.Duration("price_ttl", cfg.Cache.PriceTTL),
		zap.Duration("ohlc_ttl", cfg.Cache.OHLCTTL),
		zap.Duration("order_book_ttl", cfg.Cache.OrderBookTTL),
		zap.Int("rate_limit_rpm", cfg.RateLimit.RequestsPerMinute),
		zap.String("log_level", cfg.Logging.Level),
	)

	server, err := NewServer(cfg)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		log.Fatal("Server failed to start", zap.Error(err))
	}
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	log := logger.GetLogger()

	log.Info("Initializing server components")

	tokenVerifier, err := services.NewTokenVerifier(&cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	upstreamClient := services.NewCoinGeckoClient(&cfg.Upstream)
	if !upstreamClient.HasAPIKey() {
		log.Warn("No upstream API key configured, all market data will be synthetic")
	}

	marketService := services.NewMarketService(upstreamClient, cfg)

	rateLimiter := ratelimiter.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.WindowSize)

	dbHealthChecker, err := services.NewDatabaseHealthChecker(&cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database health checker: %w", err)
	}

	healthHandler := handlers.NewHealthHandler(dbHealthChecker)
	router := handlers.NewRouter(marketService, healthHandler)

	log.Info("Server components initialized successfully")

	return &Server{
		config:          cfg,
		tokenVerifier:   tokenVerifier,
		upstreamClient:  upstreamClient,
		marketService:   marketService,
		dbHealthChecker: dbHealthChecker,
		rateLimiter:     rateLimiter,
		router:          router,
	}, nil
}

// Start starts the HTTP server with graceful shutdown handling
func (s *Server) Start() error {
	log := logger.GetLogger()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	s.setupMiddleware(engine)
	s.setupRoutes(engine)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:           engine,
		ReadTimeout:       s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	log.Info("HTTP server configured",
		zap.String("address", s.httpServer.Addr),
		zap.Duration("read_timeout", s.config.Server.ReadTimeout),
		zap.Duration("write_timeout", s.config.Server.WriteTimeout),
	)

	s.startCleanupRoutines()

	go func() {
		log.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	return s.waitForShutdown()
}

// setupMiddleware configures the middleware stack
func (s *Server) setupMiddleware(engine *gin.Engine) {
	// Recovery must come first
	engine.Use(logger.RecoveryMiddleware())
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.PerformanceMiddleware(s.marketService.GetMetricsCollector()))
	engine.Use(corsMiddleware())
	engine.Use(s.rateLimiter.Middleware())
}

// setupRoutes configures all application routes
func (s *Server) setupRoutes(engine *gin.Engine) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Bidance proxy server. Use /api/price, /api/ohlc or /api/orderbook.",
		})
	})

	// Health routes need no authentication
	s.router.SetupHealthRoutes(engine)

	api := engine.Group("/api")
	api.Use(middleware.AuthMiddleware(s.tokenVerifier))
	s.router.SetupAPIRoutes(api)

	engine.GET("/metrics", s.metricsHandler)
	engine.GET("/status", s.statusHandler)
}

// corsMiddleware adds the CORS headers the dashboard client depends on:
// cross-origin GETs with an Authorization header.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// metricsHandler provides the metrics endpoint
func (s *Server) metricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "bidance-market-api",
		"version":     "1.0.0",
		"performance": s.marketService.GetPerformanceStats(),
	})
}

// statusHandler provides service status information
func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":          "bidance-market-api",
		"status":           "running",
		"upstream_enabled": s.upstreamClient.HasAPIKey(),
		"cache_size":       s.marketService.CacheSize(),
		"uptime":           time.Since(startTime).String(),
		"version":          "1.0.0",
	})
}

// startCleanupRoutines starts background cleanup tasks
func (s *Server) startCleanupRoutines() {
	log := logger.GetLogger()

	go func() {
		ticker := time.NewTicker(s.config.RateLimit.CleanupInterval)
		defer ticker.Stop()

		for range ticker.C {
			s.rateLimiter.Cleanup()
		}
	}()

	log.Info("Background cleanup routines started")
}

// waitForShutdown waits for interrupt signal and performs graceful shutdown
func (s *Server) waitForShutdown() error {
	log := logger.GetLogger()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Info("Shutting down HTTP server", zap.Duration("timeout", 30*time.Second))

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	s.cleanup()

	log.Info("Server gracefully stopped")
	return nil
}

// cleanup performs cleanup of all services
func (s *Server) cleanup() {
	log := logger.GetLogger()

	log.Info("Cleaning up services...")

	if s.marketService != nil {
		s.marketService.Stop()
	}

	if s.tokenVerifier != nil {
		if err := s.tokenVerifier.Close(); err != nil {
			log.Error("Error closing token verifier", zap.Error(err))
		}
	}

	if s.dbHealthChecker != nil {
		if err := s.dbHealthChecker.Close(); err != nil {
			log.Error("Error closing health checker", zap.Error(err))
		}
	}

	if err := logger.GetLogger().Sync(); err != nil {
		fmt.Printf("Error syncing logger: %v\n", err)
	}

	log.Info("Cleanup completed")
}

// startTime tracks server start for uptime reporting
var startTime = time.Now()
