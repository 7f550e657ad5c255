// Package api wires the HTTP surface of the analytics service.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/joseteiadirector/teia-geo/internal/api/handlers"
	"github.com/joseteiadirector/teia-geo/internal/metrics"
	"github.com/joseteiadirector/teia-geo/internal/middleware"
)

// Dependencies are the collaborators served by the router. DB and Redis are
// only used for health reporting; a nil Cache disables the admin cache routes.
type Dependencies struct {
	Service     handlers.PredictiveAnalyzer
	DB          handlers.HealthChecker
	Redis       handlers.HealthChecker
	Cache       handlers.SeriesCacheAdmin
	Metrics     *metrics.Metrics
	Logger      *logrus.Logger
	ServiceName string
	JWTSecret   string
	AdminAPIKey string
}

// NewRouter builds the gin engine with the global middleware chain and all routes.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "teia-geo"
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(deps.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.RequestMetrics(deps.Metrics))

	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Service, deps.Logger)

	// Health and metrics endpoints
	router.GET("/health", healthHandler.HealthCheck)
	router.HEAD("/health", healthHandler.HealthCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	if deps.JWTSecret != "" {
		v1.Use(middleware.NewAuthMiddleware(deps.JWTSecret).RequireAuth())
	} else {
		deps.Logger.Warn("JWT secret not configured, analytics endpoints are unauthenticated")
	}
	{
		analytics := v1.Group("/analytics")
		{
			analytics.POST("/predictive", analyticsHandler.Predictive)
			analytics.POST("/series", analyticsHandler.Series)
		}
	}

	// Admin routes
	if deps.Cache != nil && deps.AdminAPIKey != "" {
		cacheHandler := handlers.NewCacheHandler(deps.Cache)
		admin := router.Group("/api/v1/admin")
		admin.Use(middleware.NewAdminMiddleware(deps.AdminAPIKey).RequireAdminAuth())
		{
			admin.GET("/cache/stats", cacheHandler.GetCacheStats)
			admin.DELETE("/cache/:brand_id", cacheHandler.InvalidateBrand)
		}
	}
}
