package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/linkflow/internal/config"
	"github.com/SergeiKhy/linkflow/internal/handler"
	"github.com/SergeiKhy/linkflow/internal/metrics"
	"github.com/SergeiKhy/linkflow/internal/middleware"
	"github.com/SergeiKhy/linkflow/internal/repository"
	"github.com/SergeiKhy/linkflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "linkflow",
	Short:        "Affiliate short-link and click tracking backend",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE:  runMigrate,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a JWT for a user",
	RunE:  runToken,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".env", "Path to env config file")

	serveCmd.Flags().Bool("skip-migrate", false, "Do not apply migrations on startup")

	tokenCmd.Flags().Int64("user", 0, "User id (token subject)")
	tokenCmd.Flags().Duration("ttl", 30*24*time.Hour, "Token lifetime, 0 for no expiry")
	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := repository.Migrate(cfg.DB); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	userID, _ := cmd.Flags().GetInt64("user")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if userID <= 0 {
		return errors.New("--user must be a positive id")
	}

	token, err := middleware.IssueToken(cfg.Auth.JWTSecret, userID, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	// Загрузка конфига
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Инициализация логгера
	logger, err := newLogger(cfg.App.Env)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	if cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	skipMigrate, _ := cmd.Flags().GetBool("skip-migrate")
	if !skipMigrate {
		if err := repository.Migrate(cfg.DB); err != nil {
			return err
		}
		logger.Info("Migrations applied")
	}

	// Подключение к БД (postgres)
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Redis опционален: без него кэш отключён
	cacheRepo := repository.NewNoopCache()
	if cfg.Redis.Enabled() {
		redis, err := repository.NewRedisClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redis.Close()
		cacheRepo = repository.NewCacheRepository(redis)
		logger.Info("Connected to Redis")
	} else {
		logger.Info("Redis is not configured, cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Инициализация репозиториев
	linkRepo := repository.NewLinkRepository(db)
	userRepo := repository.NewUserRepository(db)
	clickRepo := repository.NewClickRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Процессор кликов: синхронный или worker pool
	clickProcessor := service.NewClickProcessor(clickRepo, service.ClickProcessorConfig{
		Workers: cfg.Clicks.Workers,
		Buffer:  cfg.Clicks.Buffer,
	}, m, logger)
	clickProcessor.Start()
	defer clickProcessor.Stop()

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})
	defer rateLimiter.Stop()

	identity := middleware.NewIdentity(middleware.IdentityConfig{
		JWTSecret:     cfg.Auth.JWTSecret,
		APIKeys:       cfg.Auth.APIKeys,
		DefaultUserID: cfg.Auth.DefaultUserID,
	})
	logger.Info("Identity configured",
		zap.Bool("jwt", cfg.Auth.JWTSecret != ""),
		zap.Int("api_keys", len(cfg.Auth.APIKeys)),
		zap.Int64("default_user_id", cfg.Auth.DefaultUserID),
	)

	router := handler.NewRouter(handler.Dependencies{
		Users:          service.NewUserService(userRepo, logger),
		Links:          service.NewLinkService(linkRepo, cacheRepo, service.LinkOptions{BaseURL: cfg.App.BaseURL, CacheTTL: cfg.Redis.CacheTTL}, logger),
		Redirect:       service.NewRedirectService(linkRepo, cacheRepo, clickProcessor, cfg.Redis.CacheTTL, m, logger),
		Revenue:        service.NewRevenueService(revenueRepo, m, logger),
		Stats:          service.NewStatsService(linkRepo, clickRepo, statsRepo),
		Clicks:         clickProcessor,
		DB:             db,
		RateLimiter:    rateLimiter,
		Identity:       identity.Middleware(),
		Metrics:        m,
		MetricsHandler: metrics.Handler(registry),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port), zap.String("base_url", cfg.App.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
