package handler

import (
	"net/http"
	"strconv"

	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/SergeiKhy/linkflow/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	links  service.LinkService
	stats  service.StatsService
	logger *zap.Logger
}

func NewLinkHandler(links service.LinkService, stats service.StatsService, logger *zap.Logger) *LinkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkHandler{
		links:  links,
		stats:  stats,
		logger: logger,
	}
}

type CreateLinkRequest struct {
	Title          string `json:"title" binding:"required"`
	DestinationURL string `json:"destination_url" binding:"required,url"`
	Category       string `json:"category"`
}

type UpdateLinkRequest struct {
	Title          *string `json:"title"`
	DestinationURL *string `json:"destination_url" binding:"omitempty,url"`
	Category       *string `json:"category"`
	Status         *string `json:"status" binding:"omitempty,oneof=active paused archived"`
}

// CreateLink godoc
// @Summary Create a tracking link
// @Description Create a new short tracking link for the current user
// @Tags links
// @Accept json
// @Produce json
// @Param request body CreateLinkRequest true "Link creation request"
// @Success 201 {object} models.Link
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /links/ [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		bindError(c, err)
		return
	}

	link, err := h.links.CreateLink(c.Request.Context(), ownerID, &models.CreateLinkInput{
		Title:          req.Title,
		DestinationURL: req.DestinationURL,
		Category:       req.Category,
	})
	if err != nil {
		respondError(c, h.logger, err, "create link")
		return
	}

	c.JSON(http.StatusCreated, link)
}

// ListLinks godoc
// @Summary List links
// @Tags links
// @Produce json
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(100)
// @Success 200 {array} models.Link
// @Failure 400 {object} ErrorResponse
// @Router /links/ [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	skip, ok := queryInt(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", service.DefaultListLimit)
	if !ok {
		return
	}
	if limit < 0 {
		badRequest(c, "invalid_limit", "limit must not be negative")
		return
	}

	links, err := h.links.ListLinks(c.Request.Context(), ownerID, skip, limit)
	if err != nil {
		respondError(c, h.logger, err, "list links")
		return
	}

	c.JSON(http.StatusOK, links)
}

// GetLink godoc
// @Summary Get link
// @Tags links
// @Produce json
// @Param id path int true "Link ID"
// @Success 200 {object} models.Link
// @Failure 404 {object} ErrorResponse
// @Router /links/{id} [get]
func (h *LinkHandler) GetLink(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	link, err := h.links.GetLink(c.Request.Context(), id, ownerID)
	if err != nil {
		respondError(c, h.logger, err, "get link")
		return
	}

	c.JSON(http.StatusOK, link)
}

// UpdateLink godoc
// @Summary Update link
// @Description Partially update title, destination, category or status. The short code never changes.
// @Tags links
// @Accept json
// @Produce json
// @Param id path int true "Link ID"
// @Param request body UpdateLinkRequest true "Fields to change"
// @Success 200 {object} models.Link
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /links/{id} [patch]
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	link, err := h.links.UpdateLink(c.Request.Context(), id, ownerID, &models.UpdateLinkInput{
		Title:          req.Title,
		DestinationURL: req.DestinationURL,
		Category:       req.Category,
		Status:         req.Status,
	})
	if err != nil {
		respondError(c, h.logger, err, "update link")
		return
	}

	c.JSON(http.StatusOK, link)
}

// DeleteLink godoc
// @Summary Delete link
// @Tags links
// @Param id path int true "Link ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /links/{id} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.links.DeleteLink(c.Request.Context(), id, ownerID); err != nil {
		respondError(c, h.logger, err, "delete link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link deleted"})
}

// GetStats godoc
// @Summary Link statistics
// @Tags stats
// @Produce json
// @Param id path int true "Link ID"
// @Success 200 {object} models.LinkStats
// @Failure 404 {object} ErrorResponse
// @Router /links/{id}/stats [get]
func (h *LinkHandler) GetStats(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	stats, err := h.stats.LinkStats(c.Request.Context(), id, ownerID)
	if err != nil {
		respondError(c, h.logger, err, "get link stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetDailyStats godoc
// @Summary Daily click statistics
// @Tags stats
// @Produce json
// @Param id path int true "Link ID"
// @Param days query int false "Number of days (1-90)" default(7)
// @Success 200 {array} models.DailyClickStats
// @Failure 404 {object} ErrorResponse
// @Router /links/{id}/stats/daily [get]
func (h *LinkHandler) GetDailyStats(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	// некорректное значение заменяется на 7, как и вне диапазона
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > service.MaxStatsDays {
		days = service.DefaultStatsDays
	}

	daily, err := h.stats.DailyClicks(c.Request.Context(), id, ownerID, days)
	if err != nil {
		respondError(c, h.logger, err, "get daily stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"link_id": id,
		"days":    days,
		"stats":   daily,
	})
}
