package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/it-logbook-api/api/swagger"
	"github.com/noah-isme/it-logbook-api/internal/classifier"
	"github.com/noah-isme/it-logbook-api/internal/handler"
	"github.com/noah-isme/it-logbook-api/internal/middleware"
	"github.com/noah-isme/it-logbook-api/internal/models"
	"github.com/noah-isme/it-logbook-api/internal/repository"
	"github.com/noah-isme/it-logbook-api/internal/service"
	"github.com/noah-isme/it-logbook-api/pkg/cache"
	"github.com/noah-isme/it-logbook-api/pkg/config"
	"github.com/noah-isme/it-logbook-api/pkg/database"
	"github.com/noah-isme/it-logbook-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/it-logbook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/it-logbook-api/pkg/middleware/requestid"
	"github.com/noah-isme/it-logbook-api/pkg/storage"
)

// @title IT Logbook API
// @version 1.0.0
// @description Industrial training logbook workflow service
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	logRepo := repository.NewLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	skillRepo := repository.NewSkillRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	cycleRepo := repository.NewCycleRepository(db)
	eventRepo := repository.NewEventRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled && redisClient != nil)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)

	var skillSvc *service.SkillService
	if cfg.Classifier.Enabled {
		skillSvc = service.NewSkillService(skillRepo, classifier.New(cfg.Classifier), cfg.Skills, logr)
	} else {
		skillSvc = service.NewSkillService(skillRepo, nil, cfg.Skills, logr)
	}
	skillSvc.Start(ctx)
	defer skillSvc.Stop()

	logSvc := service.NewLogService(logRepo, userRepo, notificationSvc, eventRepo, logr).
		WithSkillDeriver(skillSvc).
		WithMetrics(metricsSvc)
	workflowSvc := service.NewWorkflowService(userRepo, logRepo, notificationSvc, eventRepo, cfg.Workflow, logr)
	authSvc := service.NewAuthService(userRepo, eventRepo, notificationSvc, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "it-logbook-api",
	})
	userSvc := service.NewUserService(userRepo, notificationSvc, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, logr)
	cycleSvc := service.NewCycleService(cycleRepo, logr)
	dashboardSvc := service.NewDashboardService(userRepo, logRepo, eventRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(userRepo, logRepo, store, signer, logr)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	logHandler := handler.NewLogHandler(logSvc)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	userHandler := handler.NewUserHandler(userSvc)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	cycleHandler := handler.NewCycleHandler(cycleSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, metricsSvc, skillSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
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

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/users/me", userHandler.Me)
		authed.PUT("/users/avatar", userHandler.UpdateAvatar)
		authed.GET("/announcements", announcementHandler.List)

		notifications := authed.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
			notifications.DELETE("/read", notificationHandler.ClearRead)
		}

		students := authed.Group("")
		students.Use(middleware.RequireRoles(models.RoleStudent))
		{
			students.POST("/logs", logHandler.Create)
			students.GET("/logs", logHandler.ListMine)
			students.PUT("/logs/:id", logHandler.Update)
			students.DELETE("/logs/:id", logHandler.Delete)
			students.POST("/users/link-supervisor", userHandler.LinkSupervisor)
			students.POST("/workflow/final-review", workflowHandler.RequestFinalReview)
			students.DELETE("/workflow/final-review", workflowHandler.CancelFinalReview)
		}

		supervisors := authed.Group("")
		supervisors.Use(middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin))
		{
			supervisors.GET("/supervisor/students", userHandler.ListStudents)
			supervisors.GET("/supervisor/logs", logHandler.ListForSupervisor)
			supervisors.POST("/logs/:id/review", logHandler.Review)
			supervisors.POST("/logs/:id/comment", logHandler.Comment)
			supervisors.POST("/students/:id/sign-off", workflowHandler.FinalSignOff)
			supervisors.GET("/dashboard/supervisor", dashboardHandler.Supervisor)
		}

		shared := authed.Group("")
		{
			shared.GET("/logs/:id", logHandler.Get)
			shared.GET("/students/:id/logs", logHandler.ListByStudent)
			shared.GET("/students/:id/skills", dashboardHandler.StudentSkills)
		}

		admins := authed.Group("")
		admins.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admins.GET("/users", userHandler.List)
			admins.GET("/users/:id", userHandler.Get)
			admins.PUT("/users/:id", userHandler.Update)
			admins.DELETE("/users/:id", userHandler.Delete)
			admins.POST("/users/import", userHandler.ImportCSV)
			admins.POST("/announcements", announcementHandler.Create)
			admins.PUT("/announcements/:id/active", announcementHandler.SetActive)
			admins.DELETE("/announcements/:id", announcementHandler.Delete)
			admins.GET("/cycles", cycleHandler.List)
			admins.POST("/cycles", cycleHandler.Create)
			admins.DELETE("/cycles/:id", cycleHandler.Delete)
			admins.GET("/dashboard/admin", dashboardHandler.Admin)
			admins.GET("/dashboard/events", dashboardHandler.Events)
			admins.GET("/dashboard/metrics", dashboardHandler.SystemMetrics)
		}

		if exportSvc != nil {
			exportHandler := handler.NewExportHandler(exportSvc)
			authed.POST("/students/:id/export", middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin), exportHandler.Generate)
			r.GET("/exports/download", exportHandler.Download)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		logr.Sugar().Infow("shutting down")
		_ = srv.Shutdown(context.Background())
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
