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

	"corpvox/internal/config"
	"corpvox/internal/handlers"
	"corpvox/internal/middleware"
	"corpvox/internal/repositories/mongodb"
	"corpvox/internal/services"
	"corpvox/pkg/cache"
	"corpvox/pkg/database"
	"corpvox/pkg/logger"
	"corpvox/pkg/storage"
	"corpvox/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		appLogger.Fatalf("Failed to run migrations: %v", err)
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	storageProvider, err := newStorageProvider(cfg.Storage)
	if err != nil {
		appLogger.Fatalf("Failed to initialize storage: %v", err)
	}

	userRepo := mongodb.NewUserRepository(db.Database)
	referralRepo := mongodb.NewReferralRepository(db.Database)
	benefitRepo := mongodb.NewBenefitRepository(db.Database)
	auditLogRepo := mongodb.NewAuditLogRepository(db.Database)

	emailService := services.NewSMTPEmailService(cfg.SMTP, userRepo, appLogger)
	authService := services.NewAuthService(userRepo, auditLogRepo, redisCache, cfg.Security, appLogger)
	referralService := services.NewReferralService(referralRepo, benefitRepo, auditLogRepo, db, emailService, appLogger)
	benefitService := services.NewBenefitService(benefitRepo, referralRepo, auditLogRepo, storageProvider, emailService, appLogger)

	authHandler := handlers.NewAuthHandler(authService, appLogger)
	referralHandler := handlers.NewReferralHandler(referralService, appLogger)
	benefitHandler := handlers.NewBenefitHandler(benefitService, appLogger)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, authHandler, cfg.Security.JWTSecret, authService)
		routes.SetupReferralRoutes(v1, referralHandler, benefitHandler, cfg.Security.JWTSecret, authService)
		routes.SetupBenefitRoutes(v1, benefitHandler, cfg.Security.JWTSecret, authService)
	}

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"database": "up", "cache": "up"}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(); err != nil {
			checks["database"] = "down"
			status = http.StatusServiceUnavailable
		}
		if err := redisCache.Ping(ctx); err != nil {
			checks["cache"] = "down"
			status = http.StatusServiceUnavailable
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "degraded"
		}

		c.JSON(status, gin.H{
			"status":  overall,
			"version": cfg.App.Version,
			"checks":  checks,
		})
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting %s on %s", cfg.App.Name, server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Errorf("Forced shutdown: %v", err)
	}
}

func newStorageProvider(cfg *config.StorageConfig) (storage.StorageProvider, error) {
	switch cfg.Provider {
	case "aws":
		return storage.NewAWSS3Storage(cfg.AWS.Region, cfg.AWS.Bucket)
	case "gcp":
		return storage.NewGCPStorage(cfg.GCP.Bucket, cfg.GCP.CredentialsFile)
	default:
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	}
}
