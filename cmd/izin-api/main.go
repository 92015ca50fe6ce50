package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/izin-pramuka-api/api/swagger"
	"github.com/noah-isme/izin-pramuka-api/internal/handler"
	"github.com/noah-isme/izin-pramuka-api/internal/letter"
	"github.com/noah-isme/izin-pramuka-api/internal/middleware"
	"github.com/noah-isme/izin-pramuka-api/internal/repository"
	"github.com/noah-isme/izin-pramuka-api/internal/service"
	"github.com/noah-isme/izin-pramuka-api/pkg/cache"
	"github.com/noah-isme/izin-pramuka-api/pkg/config"
	"github.com/noah-isme/izin-pramuka-api/pkg/database"
	"github.com/noah-isme/izin-pramuka-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/izin-pramuka-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/izin-pramuka-api/pkg/middleware/requestid"
	"github.com/noah-isme/izin-pramuka-api/pkg/notify"
)

// @title Izin Pramuka API
// @version 0.1.0
// @description Permission slips for scout activities
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// Redis is an optimisation, not a dependency: without it every status
	// lookup goes straight to Postgres.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, status caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	izinRepo := repository.NewIzinRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	var queue service.NotificationQueue
	if notifier := notify.NewTelegramNotifier(cfg.Telegram); notifier != nil {
		dispatcher := notify.NewDispatcher(notifier, notify.DispatcherConfig{Logger: logr})
		dispatcher.Start(ctx)
		defer dispatcher.Stop()
		queue = dispatcher
	} else {
		logr.Info("telegram notifications disabled")
	}

	sessions := letter.NewSessionManager(cfg.Letter.SessionTTL)
	sessions.Start()
	defer sessions.Stop()

	compositor := letter.NewCompositor(cfg.Letter.VerifyOrigin, cfg.Letter.Place)

	izinSvc := service.NewIzinService(izinRepo, cacheRepo, queue, metrics, logr, cfg.Letter.StatusCache)
	renderSvc := service.NewRenderService(sessions, compositor, letter.NewPDFEncoder(), izinRepo, cacheRepo, metrics, logr, cfg.Letter.StatusCache)
	authSvc := service.NewAuthService(cfg.Auth, validate, logr)

	izinHandler := handler.NewIzinHandler(izinSvc)
	letterHandler := handler.NewLetterHandler(renderSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	verifyHandler := handler.NewVerifyHandler(izinSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/verify/:id", verifyHandler.Show)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		api.POST("/izin", izinHandler.Create)
		api.GET("/izin", izinHandler.List)
		api.GET("/izin/:id", izinHandler.Get)
		api.PATCH("/izin/:id/verify", middleware.JWT(authSvc), izinHandler.Verify)

		api.POST("/letters/preview", letterHandler.Preview)
		api.POST("/letters/:sid/refresh", letterHandler.Refresh)
		api.POST("/letters/:sid/export", letterHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
