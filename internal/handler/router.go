package handler

import (
	"net/http"

	"github.com/SergeiKhy/linkflow/internal/metrics"
	"github.com/SergeiKhy/linkflow/internal/middleware"
	"github.com/SergeiKhy/linkflow/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies всё, что нужно роутеру
type Dependencies struct {
	Users    service.UserService
	Links    service.LinkService
	Redirect service.RedirectService
	Revenue  service.RevenueService
	Stats    service.StatsService
	Clicks   service.ClickProcessor
	DB       Pinger

	RateLimiter *middleware.RateLimiter
	Identity    gin.HandlerFunc
	Metrics     *metrics.Metrics
	// MetricsHandler отдаёт /metrics; nil отключает маршрут
	MetricsHandler http.Handler
	Logger         *zap.Logger
}

func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger, deps.Metrics))

	// Rate limiting по IP для всех запросов, включая неаутентифицированные
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware())
	}

	healthHandler := NewHealthHandler(deps.DB, deps.Clicks, deps.RateLimiter)
	userHandler := NewUserHandler(deps.Users, logger)
	linkHandler := NewLinkHandler(deps.Links, deps.Stats, logger)
	redirectHandler := NewRedirectHandler(deps.Redirect, logger)
	revenueHandler := NewRevenueHandler(deps.Revenue, logger)
	dashboardHandler := NewDashboardHandler(deps.Stats, logger)

	router.GET("/health", healthHandler.Health)
	router.GET("/api", healthHandler.Index)
	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	// Редирект без аутентификации
	router.GET("/r/:code", redirectHandler.Redirect)

	// Регистрация открыта
	router.POST("/users", userHandler.CreateUser)
	router.POST("/users/", userHandler.CreateUser)

	authed := router.Group("/")
	if deps.Identity != nil {
		authed.Use(deps.Identity)
	}
	// отдельный лимит на пользователя, уже проверенного Identity
	if deps.RateLimiter != nil {
		authed.Use(deps.RateLimiter.MiddlewareWithKey(middleware.UserKey))
	}
	{
		authed.GET("/users/me", userHandler.Me)

		for _, path := range []string{"/links", "/links/"} {
			authed.POST(path, linkHandler.CreateLink)
			authed.GET(path, linkHandler.ListLinks)
		}
		authed.GET("/links/:id", linkHandler.GetLink)
		authed.PATCH("/links/:id", linkHandler.UpdateLink)
		authed.DELETE("/links/:id", linkHandler.DeleteLink)
		authed.GET("/links/:id/stats", linkHandler.GetStats)
		authed.GET("/links/:id/stats/daily", linkHandler.GetDailyStats)

		authed.GET("/dashboard/stats", dashboardHandler.Stats)

		authed.POST("/revenue", revenueHandler.TrackRevenue)
		authed.POST("/revenue/", revenueHandler.TrackRevenue)
	}

	return router
}
