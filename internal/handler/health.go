package handler

import (
	"context"
	"net/http"

	"github.com/SergeiKhy/linkflow/internal/middleware"
	"github.com/SergeiKhy/linkflow/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	ServiceName = "linkflow"
	Version     = "1.0.0"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	clicks  service.ClickProcessor
	limiter *middleware.RateLimiter
}

func NewHealthHandler(db Pinger, clicks service.ClickProcessor, limiter *middleware.RateLimiter) *HealthHandler {
	return &HealthHandler{db: db, clicks: clicks, limiter: limiter}
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	database := "ok"
	if h.db == nil {
		database = "not_configured"
	} else if err := h.db.Ping(c.Request.Context()); err != nil {
		database = "unavailable"
	}

	body := gin.H{
		"status":   "healthy",
		"service":  ServiceName,
		"version":  Version,
		"database": database,
	}
	if h.clicks != nil {
		body["click_buffer"] = h.clicks.ChannelStats()
	}
	if h.limiter != nil {
		body["rate_limiter_visitors"] = h.limiter.Visitors()
	}

	c.JSON(http.StatusOK, body)
}

// Index godoc
// @Summary Service index
// @Tags system
// @Produce json
// @Router /api [get]
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    ServiceName,
		"version": Version,
		"endpoints": gin.H{
			"users":     "/users/",
			"links":     "/links/",
			"redirect":  "/r/{code}",
			"dashboard": "/dashboard/stats",
			"revenue":   "/revenue/",
			"health":    "/health",
			"metrics":   "/metrics",
		},
	})
}
