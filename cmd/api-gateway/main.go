package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/vetlink/vetlink-api/api/swagger"
	"github.com/vetlink/vetlink-api/internal/handler"
	"github.com/vetlink/vetlink-api/internal/middleware"
	"github.com/vetlink/vetlink-api/internal/repository"
	"github.com/vetlink/vetlink-api/internal/service"
	"github.com/vetlink/vetlink-api/pkg/cache"
	"github.com/vetlink/vetlink-api/pkg/config"
	"github.com/vetlink/vetlink-api/pkg/database"
	"github.com/vetlink/vetlink-api/pkg/jobs"
	"github.com/vetlink/vetlink-api/pkg/logger"
	corsmiddleware "github.com/vetlink/vetlink-api/pkg/middleware/cors"
	reqidmiddleware "github.com/vetlink/vetlink-api/pkg/middleware/requestid"
)

// @title VetLink API
// @version 0.1.0
// @description Veterinary telehealth slot scheduling and booking engine
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, statistics run uncached", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Statistics.CacheTTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	txManager := repository.NewTxManager(db)
	slotRepo := repository.NewSlotRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	providerRepo := repository.NewProviderRepository(db)

	validate := validator.New()

	dispatcher := service.NewDispatcher(
		&service.LoggingEmailSender{Logger: logr},
		&service.LoggingPushSender{Logger: logr},
		jobs.QueueConfig{
			Workers:    cfg.Dispatch.Workers,
			BufferSize: cfg.Dispatch.BufferSize,
			MaxRetries: cfg.Dispatch.MaxRetries,
			RetryDelay: cfg.Dispatch.RetryDelay,
		},
		logr,
	)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	links := &service.StaticMeetingLinkIssuer{BaseURL: cfg.Booking.MeetingLinkBaseURL}

	availabilitySvc := service.NewAvailabilityService(txManager, slotRepo, cacheSvc, metricsSvc, validate, logr, cfg.Booking.DefaultSlotDuration, cfg.Booking.DefaultBuffer)
	bookingSvc := service.NewBookingService(txManager, slotRepo, appointmentRepo, notificationRepo, providerRepo, links, dispatcher, cacheSvc, metricsSvc, validate, logr)
	statsSvc := service.NewStatsService(slotRepo, appointmentRepo, providerRepo, cacheSvc, metricsSvc, logr, cfg.Statistics.PeriodGapMinutes, cfg.Statistics.CacheTTL)
	slotSvc := service.NewSlotService(slotRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	authSvc := service.NewAuthService(cfg.JWT.Secret)

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
	slotHandler := handler.NewSlotHandler(slotSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/providers/:id/slots", slotHandler.List)
	api.GET("/providers/:id/statistics", statsHandler.Get)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.PUT("/providers/:id/availability", availabilityHandler.Replace)
	protected.POST("/appointments", bookingHandler.Book)
	protected.POST("/appointments/:id/reschedule", bookingHandler.Reschedule)
	protected.DELETE("/appointments/:id", bookingHandler.Cancel)
	protected.PATCH("/slots/:id/status", slotHandler.UpdateStatus)
	protected.GET("/notifications", notificationHandler.List)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
