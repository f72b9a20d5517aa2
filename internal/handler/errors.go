package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SergeiKhy/linkflow/internal/middleware"
	"github.com/SergeiKhy/linkflow/internal/repository"
	"github.com/SergeiKhy/linkflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// clientErrors ошибки, которые отдаются клиенту как есть
var clientErrors = []struct {
	err    error
	status int
	code   string
}{
	{repository.ErrLinkNotFound, http.StatusNotFound, "link_not_found"},
	{repository.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{repository.ErrUserExists, http.StatusBadRequest, "user_exists"},
	{service.ErrInvalidURL, http.StatusBadRequest, "invalid_url"},
	{service.ErrInvalidTitle, http.StatusBadRequest, "invalid_title"},
	{service.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{service.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{service.ErrInvalidCurrency, http.StatusBadRequest, "invalid_currency"},
	{service.ErrInvalidUser, http.StatusBadRequest, "invalid_user"},
}

// respondError переводит ошибку сервиса в HTTP ответ; неизвестные ошибки логируются и скрываются
func respondError(c *gin.Context, logger *zap.Logger, err error, action string) {
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			c.JSON(ce.status, ErrorResponse{Error: ce.code, Message: err.Error()})
			return
		}
	}

	logger.Error("Failed to "+action,
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Failed to " + action,
	})
}

// bindTagCodes коды ответа для проваленных правил binding
var bindTagCodes = map[string]string{
	"url":   "invalid_url",
	"oneof": "invalid_status",
	"email": "invalid_user",
}

// bindError отвечает 400 на ошибку разбора тела запроса
func bindError(c *gin.Context, err error) {
	code := "invalid_request"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if mapped, ok := bindTagCodes[verrs[0].Tag()]; ok {
			code = mapped
		}
	}
	badRequest(c, code, err.Error())
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: code, Message: message})
}

// currentUser достаёт id владельца, положенный Identity middleware
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "missing credentials"})
		return 0, false
	}
	return userID, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryInt читает целый query параметр; отсутствие даёт def
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid_"+name, name+" must be an integer")
		return 0, false
	}
	return value, true
}
