package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/marocainperdu/projet-bah/api/swagger"
	"github.com/marocainperdu/projet-bah/internal/handler"
	"github.com/marocainperdu/projet-bah/internal/middleware"
	"github.com/marocainperdu/projet-bah/internal/models"
	"github.com/marocainperdu/projet-bah/internal/repository"
	"github.com/marocainperdu/projet-bah/internal/service"
	"github.com/marocainperdu/projet-bah/pkg/cache"
	"github.com/marocainperdu/projet-bah/pkg/config"
	"github.com/marocainperdu/projet-bah/pkg/database"
	"github.com/marocainperdu/projet-bah/pkg/logger"
	corsmiddleware "github.com/marocainperdu/projet-bah/pkg/middleware/cors"
	reqidmiddleware "github.com/marocainperdu/projet-bah/pkg/middleware/requestid"
)

// @title Demandes API
// @version 1.0.0
// @description Institutional equipment demand management API
// @BasePath /api
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, statistics caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	demandListRepo := repository.NewDemandListRepository(db)
	demandRepo := repository.NewDemandRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, userRepo, validate, logr)
	categorySvc := service.NewCategoryService(categoryRepo, demandRepo, validate, logr)
	demandListSvc := service.NewDemandListService(demandListRepo, validate, logr)
	reportSvc := service.NewReportService(demandRepo, demandListRepo, cacheRepo, metricsSvc, service.ReportConfig{
		StatsCacheTTL: cfg.Stats.CacheTTL,
		PDFTitle:      cfg.Exports.PDFTitle,
	}, logr, nil, nil)
	demandSvc := service.NewDemandService(demandRepo, demandListRepo, reportSvc, metricsSvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	demandListHandler := handler.NewDemandListHandler(demandListSvc, demandSvc)
	demandHandler := handler.NewDemandHandler(demandSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
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

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	directorOnly := middleware.RequireRoles(models.RoleDirector)
	reviewers := middleware.RequireRoles(models.RoleDepartmentHead, models.RoleDirector)

	users := protected.Group("/users")
	users.Use(directorOnly)
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	departments := protected.Group("/departments")
	departments.GET("", departmentHandler.List)
	departments.GET("/:id", departmentHandler.Get)
	departments.POST("", directorOnly, departmentHandler.Create)
	departments.PUT("/:id", directorOnly, departmentHandler.Update)
	departments.DELETE("/:id", directorOnly, departmentHandler.Delete)

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.List)
	categories.GET("/:id", categoryHandler.Get)
	categories.POST("", directorOnly, categoryHandler.Create)
	categories.PUT("/:id", directorOnly, categoryHandler.Update)
	categories.DELETE("/:id", directorOnly, categoryHandler.Delete)

	demandLists := protected.Group("/demand-lists")
	demandLists.GET("", demandListHandler.List)
	demandLists.GET("/:id", demandListHandler.Get)
	demandLists.POST("", directorOnly, demandListHandler.Create)
	demandLists.POST("/:id/close", directorOnly, demandListHandler.Close)
	demandLists.GET("/:id/demands", reviewers, demandListHandler.Demands)
	demandLists.GET("/:id/export", directorOnly, reportHandler.Export)
	demandLists.GET("/:id/summary", directorOnly, reportHandler.CategorySummary)

	demands := protected.Group("/demands")
	demands.GET("", demandHandler.List)
	demands.POST("", demandHandler.Create)
	demands.POST("/:id/evaluate", reviewers, demandHandler.Evaluate)
	demands.GET("/:id/history", demandHandler.History)

	protected.GET("/stats", directorOnly, reportHandler.Stats)
	protected.GET("/stats/system", directorOnly, metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
