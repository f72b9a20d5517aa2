package handler

import (
	"net/http"

	"github.com/SergeiKhy/linkflow/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	stats  service.StatsService
	logger *zap.Logger
}

func NewDashboardHandler(stats service.StatsService, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{stats: stats, logger: logger}
}

// Stats godoc
// @Summary Dashboard statistics
// @Description Totals across all links of the current user. conversion_rate is revenue per click in percent.
// @Tags stats
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.stats.Dashboard(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, h.logger, err, "get dashboard stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
