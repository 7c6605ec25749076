package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/trimly/booking-api/api/swagger"
	"github.com/trimly/booking-api/internal/handler"
	"github.com/trimly/booking-api/internal/middleware"
	"github.com/trimly/booking-api/internal/repository"
	"github.com/trimly/booking-api/internal/service"
	rediscache "github.com/trimly/booking-api/pkg/cache"
	"github.com/trimly/booking-api/pkg/config"
	"github.com/trimly/booking-api/pkg/database"
	"github.com/trimly/booking-api/pkg/logger"
	corsmiddleware "github.com/trimly/booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/trimly/booking-api/pkg/middleware/requestid"
	"github.com/trimly/booking-api/pkg/storage"
)

// @title Trimly Booking API
// @version 1.0.0
// @description Multi-service appointment scheduling engine
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Redis.Enabled {
		redisClient, err := rediscache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, search cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Scheduler.SearchCacheTTL, logr, cfg.Scheduler.SearchCacheEnable)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	shopRepo := repository.NewShopRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	specialistRepo := repository.NewSpecialistRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	intervalRepo := repository.NewTimeIntervalRepository(db)

	validate := validator.New()
	schedulerSvc := service.NewSchedulerService(
		shopRepo, serviceRepo, specialistRepo, appointmentRepo, intervalRepo,
		db, validate, logr, cacheSvc, metrics, cfg.Scheduler,
	)
	daySheetSvc := service.NewDaySheetService(specialistRepo, appointmentRepo, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archiveSvc *service.ArchiveService
	if cfg.DaySheets.Enabled && cfg.DaySheets.ArchiveEnabled {
		store, err := storage.NewLocalStorage(cfg.DaySheets.ExportDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export directory", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Auth.Secret, cfg.DaySheets.SignedURLTTL)
		archiveSvc = service.NewArchiveService(daySheetSvc, store, signer, logr, service.ArchiveConfig{
			Workers:       cfg.DaySheets.ArchiveWorkers,
			FileTTL:       cfg.DaySheets.ArchiveTTL,
			SweepInterval: cfg.DaySheets.SweepInterval,
		})
		archiveSvc.Start(ctx)
		defer archiveSvc.Stop()
		schedulerSvc.SetArchiver(archiveSvc)
	}

	schedulingHandler := handler.NewSchedulingHandler(schedulerSvc)
	daySheetHandler := handler.NewDaySheetHandler(daySheetSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/status", metricsHandler.Status)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.Auth.Required {
		api.Use(middleware.JWT(cfg.Auth.Secret))
	} else {
		api.Use(middleware.OptionalJWT(cfg.Auth.Secret))
	}

	api.POST("/slots/search", schedulingHandler.SearchSlots)
	api.POST("/bookings", schedulingHandler.CreateBooking)
	if cfg.DaySheets.Enabled {
		api.GET("/specialists/:id/day-sheet", daySheetHandler.Export)
		if archiveSvc != nil {
			archiveHandler := handler.NewArchiveHandler(archiveSvc)
			api.GET("/specialists/:id/day-sheet/link", archiveHandler.Link)
			api.GET("/day-sheets/archives/:token", archiveHandler.Download)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
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
