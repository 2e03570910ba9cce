// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"farmops/internal/infrastructure/storage/postgres"
)

// Version is reported by /health/info. Overridden at build time.
var Version = "0.1.0"

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	ping    func(ctx context.Context) error
	pool    *postgres.Pool
	storage string
}

// NewHealthHandler creates a new health handler. pool is nil for the
// memory driver.
func NewHealthHandler(ping func(ctx context.Context) error, pool *postgres.Pool, storage string) *HealthHandler {
	return &HealthHandler{ping: ping, pool: pool, storage: storage}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"checks": map[string]string{
					"storage": "unhealthy: " + err.Error(),
				},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"storage": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"app":     "farmops",
		"version": Version,
		"storage": h.storage,
	}

	if h.pool != nil {
		info["database"] = h.pool.Stats()
	}

	c.JSON(http.StatusOK, info)
}
