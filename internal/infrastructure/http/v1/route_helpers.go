package v1

import (
	"github.com/gin-gonic/gin"

	appctx "farmops/internal/core/context"
	"farmops/internal/infrastructure/http/v1/middleware"
)

// DocumentRouteHandler defines the interface for document handlers.
// All document handlers must implement these methods.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterDocumentRoutes registers standard CRUD routes for a document.
// Deletes require the admin role.
//
// Usage:
//
//	handler := handlers.NewOrderHandler(base, services.Orders)
//	RegisterDocumentRoutes(protected.Group("/orders"), handler)
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", middleware.RequireRole(appctx.RoleAdmin), handler.Delete)
}
