// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"farmops/internal/app"
	appctx "farmops/internal/core/context"
	"farmops/internal/core/idempotency"
	"farmops/internal/infrastructure/http/v1/handlers"
	"farmops/internal/infrastructure/http/v1/middleware"
	"farmops/internal/infrastructure/storage/postgres"
	"farmops/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Services are the domain services behind every route
	Services *app.Services

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Idempotency backs X-Idempotency-Key; nil disables the middleware
	Idempotency idempotency.Store

	// Pool is reported by /health/info; nil for the memory driver
	Pool *postgres.Pool

	// StorageDriver is reported by /health/info
	StorageDriver string

	// Debug keeps gin in debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Services.Storage.Ping, cfg.Pool, cfg.StorageDriver)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency))
	}

	registerRoutes(v1, cfg.Services)

	return router
}

func registerRoutes(rg *gin.RouterGroup, svc *app.Services) {
	base := handlers.NewBaseHandler()

	products := handlers.NewProductHandler(base, svc.Stock, svc.Orders)
	pg := rg.Group("/products")
	{
		pg.POST("", products.Create)
		pg.GET("/:id", products.Get)
		pg.GET("/:id/availability", products.Availability)
		pg.GET("/:id/movements", products.Movements)
	}

	RegisterDocumentRoutes(rg.Group("/orders"), handlers.NewOrderHandler(base, svc.Orders))
	RegisterDocumentRoutes(rg.Group("/deliveries"), handlers.NewDeliveryHandler(base, svc.Deliveries))

	recon := handlers.NewReconciliationHandler(base, svc.Reconciliation)
	rg.POST("/reconciliation/run", middleware.RequireRole(appctx.RoleAdmin), recon.Run)
}
