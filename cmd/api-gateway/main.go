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

	_ "github.com/ksef-kenya/judging-api/api/swagger"
	"github.com/ksef-kenya/judging-api/internal/handler"
	"github.com/ksef-kenya/judging-api/internal/middleware"
	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/repository"
	"github.com/ksef-kenya/judging-api/internal/service"
	"github.com/ksef-kenya/judging-api/pkg/cache"
	"github.com/ksef-kenya/judging-api/pkg/config"
	"github.com/ksef-kenya/judging-api/pkg/database"
	"github.com/ksef-kenya/judging-api/pkg/jobs"
	"github.com/ksef-kenya/judging-api/pkg/logger"
	corsmiddleware "github.com/ksef-kenya/judging-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ksef-kenya/judging-api/pkg/middleware/requestid"
	"github.com/ksef-kenya/judging-api/pkg/storage"
)

// @title KSEF Judging API
// @version 1.0.0
// @description Judging engine for the Kenya Science and Engineering Fair: project registration, judge assignment, scoring, ranking and promotion.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, ranking cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Ranking.CacheTTL, logr, cfg.Ranking.CacheEnabled)
	}

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "ksef-judging-api",
	})
	userService := service.NewUserService(userRepo, validate, logr)
	projectService := service.NewProjectService(projectRepo, scoreRepo, cfg.Judging.JudgesPerSection, validate, logr)
	eligibilityService := service.NewEligibilityService(userRepo, projectRepo, assignmentRepo, cfg.Judging.NationalFallback, logr)
	assignmentService := service.NewAssignmentService(assignmentRepo, projectRepo, userRepo, eligibilityService, cfg.Judging.JudgesPerSection, metricsService, validate, logr)
	scoringService := service.NewScoringService(scoreRepo, assignmentRepo, projectRepo, userRepo, cfg.Judging.JudgesPerSection, cfg.Judging.DiscrepancyPct, metricsService, validate, logr)
	rankingService := service.NewRankingService(projectRepo, scoreRepo, cacheService, cfg.Ranking.CacheTTL, cfg.Judging.PromotionSlots, cfg.Judging.JudgesPerSection, metricsService, logr)
	seedService := service.NewSeedService(projectRepo, assignmentRepo, scoreRepo, eligibilityService, cfg.Seed.Enabled, logr)
	exportService := service.NewExportService(rankingService, projectService, logr)

	exportStorage, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export directory", "error", err)
	}
	downloadBasePath := cfg.APIPrefix + "/exports/download"
	exportSigner := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Export.ResultTTL)
	exportWorker := service.NewExportWorker(exportJobRepo, exportService, exportStorage, exportSigner, downloadBasePath, cfg.Export.MaxRetries, logr)
	exportQueue := jobs.NewQueue[models.ExportType]("exports", exportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Export.Workers,
		MaxRetries: cfg.Export.MaxRetries,
		Logger:     logr,
	})
	exportJobService := service.NewExportJobService(exportJobRepo, exportQueue, exportStorage, exportSigner, logr, service.ExportJobServiceConfig{
		DownloadBasePath: downloadBasePath,
		ResultTTL:        cfg.Export.ResultTTL,
		CleanupInterval:  cfg.Export.CleanupInterval,
		MaxRetries:       cfg.Export.MaxRetries,
	})

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exportQueue.Start(rootCtx)
	defer exportQueue.Stop()
	exportJobService.RecoverPendingJobs(rootCtx)
	exportJobService.StartCleanup(rootCtx)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	projectHandler := handler.NewProjectHandler(projectService, userService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, eligibilityService, userService)
	scoringHandler := handler.NewScoringHandler(scoringService, userService)
	rankingHandler := handler.NewRankingHandler(rankingService, userService)
	exportHandler := handler.NewExportHandler(exportService, exportJobService, userService)
	seedHandler := handler.NewSeedHandler(seedService, userService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admins := []models.UserRole{
		models.RoleSuperAdmin,
		models.RoleNationalAdmin,
		models.RoleRegionalAdmin,
		models.RoleCountyAdmin,
		models.RoleSubCountyAdmin,
	}

	api := r.Group(cfg.APIPrefix)

	api.GET("/exports/download/:token", exportHandler.Download)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authService), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))
	{
		adminsAndSelf := make([]string, 0, len(admins)+1)
		for _, r := range admins {
			adminsAndSelf = append(adminsAndSelf, string(r))
		}
		adminsAndSelf = append(adminsAndSelf, "SELF")

		users := protected.Group("/users")
		{
			users.GET("", middleware.RequireRoles(admins...), userHandler.List)
			users.GET("/:id", middleware.RBAC(adminsAndSelf...), userHandler.Get)
			users.POST("", middleware.RequireRoles(admins...), userHandler.Create)
			users.PATCH("/:id", middleware.RequireRoles(admins...), userHandler.Update)
		}

		projects := protected.Group("/projects")
		{
			projects.GET("", projectHandler.List)
			projects.GET("/:id", projectHandler.Get)
			projects.POST("", middleware.RequireRoles(append(admins, models.RolePatron)...), projectHandler.Create)
			projects.POST("/:id/resolve-conflict", middleware.RequireRoles(models.RoleCoordinator), projectHandler.ResolveConflict)

			projects.GET("/:id/assignments", assignmentHandler.ListByProject)
			projects.GET("/:id/available-judges", middleware.RequireRoles(admins...), assignmentHandler.AvailableJudges)
			projects.POST("/:id/auto-assign", middleware.RequireRoles(admins...), assignmentHandler.AutoAssign)

			projects.GET("/:id/score", scoringHandler.Aggregate)
		}

		assignments := protected.Group("/assignments", middleware.RequireRoles(admins...))
		{
			assignments.POST("", assignmentHandler.Create)
			assignments.DELETE("/:id", assignmentHandler.Remove)
			assignments.GET("/stats", assignmentHandler.Stats)
		}

		protected.GET("/judges/:id/assignments", assignmentHandler.ListByJudge)

		protected.POST("/scores", middleware.RequireRoles(models.RoleJudge), scoringHandler.Submit)
		protected.GET("/scoring/progress", scoringHandler.CategoryProgress)

		ranking := protected.Group("/ranking")
		{
			ranking.GET("/decisions", rankingHandler.Rank)
			ranking.GET("/report", rankingHandler.Report)
			ranking.POST("/promote", middleware.RequireRoles(admins...), rankingHandler.Promote)
		}

		exports := protected.Group("/exports")
		{
			exports.GET("/ranking", exportHandler.RankingReport)
			exports.GET("/projects", exportHandler.ProjectSummary)
			exports.POST("/jobs", exportHandler.CreateJob)
			exports.GET("/jobs/:id", exportHandler.JobStatus)
		}

		admin := protected.Group("/admin", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleNationalAdmin))
		{
			admin.POST("/seed-scores", seedHandler.Seed)
			admin.GET("/metrics", metricsHandler.Snapshot)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
