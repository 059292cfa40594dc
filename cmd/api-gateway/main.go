package main

import (
	"context"
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

	_ "github.com/lesprivat/les-api/api/swagger"
	"github.com/lesprivat/les-api/internal/handler"
	"github.com/lesprivat/les-api/internal/middleware"
	"github.com/lesprivat/les-api/internal/models"
	"github.com/lesprivat/les-api/internal/repository"
	"github.com/lesprivat/les-api/internal/service"
	"github.com/lesprivat/les-api/pkg/cache"
	"github.com/lesprivat/les-api/pkg/config"
	"github.com/lesprivat/les-api/pkg/database"
	"github.com/lesprivat/les-api/pkg/jobs"
	"github.com/lesprivat/les-api/pkg/logger"
	corsmiddleware "github.com/lesprivat/les-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lesprivat/les-api/pkg/middleware/requestid"
)

// @title Les Privat API
// @version 1.0.0
// @description Tutoring-session scheduling, attendance and payroll backend
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, recap caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := service.NewQueueNotifier(notificationRepo, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		Logger:     logr,
	}, logr)
	notifier.Start(ctx)
	defer notifier.Stop()

	metricsSvc := service.NewMetricsService()
	payrollSvc := service.NewPayrollService(classRepo, attendanceRepo, payrollRepo, cfg.Payroll.TutorShare, metricsSvc, logr)
	completions := service.NewCompletionQueue(payrollSvc, jobs.QueueConfig{Workers: 1, Logger: logr}, logr)
	completions.Start(ctx)
	defer completions.Stop()

	scheduleSvc := service.NewScheduleService(classRepo, lessonRepo, userRepo, notifier, validate, logr, nil)
	attendanceSvc := service.NewAttendanceService(lessonRepo, classRepo, attendanceRepo, userRepo, notifier, completions, validate, logr)
	sweeperSvc := service.NewSweeperService(lessonRepo, classRepo, attendanceRepo, logr)
	orderSvc := service.NewOrderService(orderRepo, cfg.Orders.PendingTTL, logr, nil)
	statsSvc := service.NewStatsService(classRepo, attendanceRepo, payrollRepo, userRepo, cacheRepo, cfg.Stats.CacheTTL, cfg.Payroll.TutorShare, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	statsHandler := handler.NewStatsHandler(statsSvc, payrollSvc)
	adminHandler := handler.NewAdminHandler(sweeperSvc, orderSvc, metricsSvc, nil)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metricsHandler.Scrape)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.POST("/classes/:id/lessons", middleware.RequireRoles(models.RoleAdmin), scheduleHandler.CreateSequence)
		authed.GET("/classes/:id/lessons", scheduleHandler.ListByClass)
		authed.GET("/l/:slug", scheduleHandler.BySlug)
		authed.PATCH("/lessons/:id/reschedule", middleware.RequireRoles(models.RoleAdmin, models.RoleTutor), scheduleHandler.Reschedule)
		authed.PUT("/lessons/:id/info", middleware.RequireRoles(models.RoleAdmin, models.RoleTutor), scheduleHandler.Annotate)

		authed.POST("/lessons/:id/attendance", attendanceHandler.Record)
		authed.GET("/lessons/:id/attendance", attendanceHandler.ListByLesson)
		authed.GET("/classes/:id/attendance/:participantId", attendanceHandler.History)

		authed.GET("/notifications", notificationHandler.List)

		authed.GET("/classes/:id/recap", statsHandler.ClassRecap)
		authed.GET("/classes/:id/recap/export", middleware.RequireRoles(models.RoleAdmin, models.RoleTutor), statsHandler.ExportClassRecap)
		authed.GET("/tutors/:id/summary", middleware.RBAC(string(models.RoleAdmin), "SELF"), statsHandler.TutorSummary)
		authed.GET("/tutors/:id/payroll", middleware.RBAC(string(models.RoleAdmin), "SELF"), statsHandler.TutorPayroll)
		authed.GET("/students/:id/summary", middleware.RBAC(string(models.RoleAdmin), "SELF"), statsHandler.StudentSummary)

		authed.POST("/admin/sweep", middleware.RequireRoles(models.RoleAdmin), adminHandler.Sweep)
		authed.POST("/admin/orders/cancel-stale", middleware.RequireRoles(models.RoleAdmin), adminHandler.CancelStaleOrders)
	}

	if cfg.Sweeper.Enabled {
		go runSweeper(ctx, sweeperSvc, metricsSvc, cfg.Sweeper.Interval)
		go runOrderCanceller(ctx, orderSvc, metricsSvc, cfg.Orders.CancelInterval)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}

// runSweeper drives the missed-lesson sweep on a fixed interval. The external
// deployment may disable this and call the admin endpoint instead.
func runSweeper(ctx context.Context, sweeper *service.SweeperService, metrics *service.MetricsService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			start := time.Now()
			if processed, err := sweeper.Sweep(ctx, now); err == nil {
				metrics.ObserveSweep(processed, time.Since(start))
			}
		}
	}
}

// runOrderCanceller drives stale pending-order cancellation on a fixed interval.
func runOrderCanceller(ctx context.Context, orders *service.OrderService, metrics *service.MetricsService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if cancelled, err := orders.CancelStale(ctx); err == nil {
				metrics.AddOrdersCancelled(cancelled)
			}
		}
	}
}
