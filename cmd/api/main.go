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

	"phishguard/internal/config"
	"phishguard/internal/database"
	"phishguard/internal/features"
	"phishguard/internal/handlers"
	"phishguard/internal/logger"
	"phishguard/internal/metrics"
	"phishguard/internal/middleware"
	"phishguard/internal/registry"
	"phishguard/internal/services"
	"phishguard/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "phishguard/internal/docs" // Import swagger docs
)

// @title           PhishGuard API
// @version         1.0
// @description     PhishGuard is a multi-tenant phishing URL detection service: URL feature extraction, model inference with audit logging, and on-demand retraining.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom validators
	validator.Register()

	// Register Prometheus collectors
	metrics.Init()

	// Model registry and feature extractor
	reg := registry.New()
	extractor := features.NewExtractor(appConfig.SuspiciousTokens)

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	predictionService := services.NewPredictionService(reg, extractor, auditService)
	trainingService := services.NewTrainingService(reg, extractor)

	// Seed the bootstrap admin account when configured
	if appConfig.AdminEmail != "" && appConfig.AdminPassword != "" {
		if err := userService.EnsureAdmin(appConfig.AdminEmail, appConfig.AdminPassword); err != nil {
			return fmt.Errorf("failed to ensure admin account: %w", err)
		}
	}

	// Publish a previously saved model, then fall back to training from the
	// bundled dataset when nothing is loaded yet. Both are best-effort; the
	// service answers in degraded mode until a model is published.
	if err := trainingService.LoadFromDisk(); err != nil {
		log.Warnf("Could not load model from disk: %v", err)
	}
	trainingService.AutoTrain()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	predictHandler := handlers.NewPredictHandler(predictionService)
	logsHandler := handlers.NewLogsHandler(auditService)
	adminHandler := handlers.NewAdminHandler(userService, auditService)
	trainHandler := handlers.NewTrainHandler(trainingService)
	healthHandler := handlers.NewHealthHandler(reg, extractor)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(metrics.Instrument())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus metrics
	router.GET("/metrics", metrics.Handler())

	// Health and schema endpoints
	router.GET("/api/health", healthHandler.Health)

	// API v1 group
	v1 := router.Group("/api/v1")
	v1.GET("/features/schema", healthHandler.FeatureSchema)

	// Public routes, rate limited per client IP
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimit(5, 10))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Training accepts either an admin bearer token or the operator secret,
	// so it sits outside the JWT middleware and authenticates itself.
	v1.POST("/train", trainHandler.Train)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/me", authHandler.GetProfile)
	protected.POST("/predict", predictHandler.Predict)
	protected.GET("/logs", logsHandler.GetOwnLogs)
	protected.DELETE("/logs", logsHandler.DeleteOwnLogs)

	// Admin routes
	admin := protected.Group("/admin")
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.PUT("/users/:id/role", adminHandler.SetRole)
	admin.PUT("/users/:id/permissions", adminHandler.SetPermissions)
	admin.GET("/users/:id/logs", adminHandler.GetUserLogs)
	admin.DELETE("/users/:id/logs", adminHandler.DeleteUserLogs)
	admin.GET("/logs", adminHandler.GetAllLogs)
	admin.DELETE("/logs", adminHandler.DeleteAllLogs)

	srv := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Starting PhishGuard API server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
