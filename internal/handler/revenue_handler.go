package handler

import (
	"net/http"

	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/SergeiKhy/linkflow/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RevenueHandler struct {
	revenue service.RevenueService
	logger  *zap.Logger
}

func NewRevenueHandler(revenue service.RevenueService, logger *zap.Logger) *RevenueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevenueHandler{revenue: revenue, logger: logger}
}

type TrackRevenueRequest struct {
	LinkID        int64    `json:"link_id" binding:"required"`
	Amount        *float64 `json:"amount" binding:"required"`
	Currency      string   `json:"currency"`
	TransactionID *string  `json:"transaction_id"`
}

// TrackRevenue godoc
// @Summary Track revenue
// @Description Add a revenue event to a link of the current user. Repeated transaction ids are not deduplicated.
// @Tags revenue
// @Accept json
// @Produce json
// @Param request body TrackRevenueRequest true "Revenue event"
// @Success 201 {object} models.RevenueEvent
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /revenue/ [post]
func (h *RevenueHandler) TrackRevenue(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req TrackRevenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	event, err := h.revenue.TrackRevenue(c.Request.Context(), ownerID, &models.TrackRevenueInput{
		LinkID:        req.LinkID,
		Amount:        *req.Amount,
		Currency:      req.Currency,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		respondError(c, h.logger, err, "track revenue")
		return
	}

	c.JSON(http.StatusCreated, event)
}
