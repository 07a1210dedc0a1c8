package http

import (
	"github.com/gin-gonic/gin"
	"github.com/shoplens/backend/config"
	"github.com/shoplens/backend/internal/infrastructure/metrics"
)

// SetupRouter creates and configures the Gin router. recorder may be nil.
func SetupRouter(cfg *config.Config, handler *Handler, recorder *metrics.Recorder) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if cfg.Server.MaxUploadMB > 0 {
		router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20
	}

	// Global middleware
	router.Use(RequestContextMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	if recorder != nil {
		router.Use(MetricsMiddleware(recorder))
	}
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	if recorder != nil && cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(recorder.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/identify", handler.Identify)
		v1.POST("/search", handler.Search)
		v1.POST("/upload-search", handler.UploadSearch)
		v1.POST("/price", handler.ComparePrices)

		products := v1.Group("/products")
		{
			products.GET("/details", handler.ProductDetails)
		}
	}

	return router
}
