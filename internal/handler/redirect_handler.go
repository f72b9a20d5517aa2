package handler

import (
	"net/http"

	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/SergeiKhy/linkflow/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RedirectHandler struct {
	redirect service.RedirectService
	logger   *zap.Logger
}

func NewRedirectHandler(redirect service.RedirectService, logger *zap.Logger) *RedirectHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{redirect: redirect, logger: logger}
}

// Redirect godoc
// @Summary Redirect to destination URL
// @Description Resolve a short code, record the click and redirect
// @Tags redirect
// @Param code path string true "Short code"
// @Success 302
// @Failure 404 {object} ErrorResponse
// @Router /r/{code} [get]
func (h *RedirectHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	destination, err := h.redirect.Resolve(c.Request.Context(), &models.Visit{
		ShortCode: code,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	})
	if err != nil {
		respondError(c, h.logger, err, "resolve link")
		return
	}

	c.Redirect(http.StatusFound, destination)
}
