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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Maverics-Seneca/auth-service/api/swagger"
	"github.com/Maverics-Seneca/auth-service/internal/handler"
	internalmiddleware "github.com/Maverics-Seneca/auth-service/internal/middleware"
	"github.com/Maverics-Seneca/auth-service/internal/models"
	"github.com/Maverics-Seneca/auth-service/internal/repository"
	"github.com/Maverics-Seneca/auth-service/internal/service"
	"github.com/Maverics-Seneca/auth-service/pkg/cache"
	"github.com/Maverics-Seneca/auth-service/pkg/config"
	"github.com/Maverics-Seneca/auth-service/pkg/database"
	"github.com/Maverics-Seneca/auth-service/pkg/jobs"
	"github.com/Maverics-Seneca/auth-service/pkg/logger"
	"github.com/Maverics-Seneca/auth-service/pkg/mailer"
	corsmiddleware "github.com/Maverics-Seneca/auth-service/pkg/middleware/cors"
	reqidmiddleware "github.com/Maverics-Seneca/auth-service/pkg/middleware/requestid"
)

// @title MediTrack Auth Service
// @version 1.0.0
// @description Accounts, organizations and the audit trail for MediTrack
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
		if version, dirty, err := database.Version(db); err == nil {
			logr.Info("database schema ready", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
	}

	var redisClient *redis.Client
	if client, err := cache.NewRedis(ctx, cfg.Redis); err != nil {
		logr.Warn("redis unavailable, caching and password reset disabled", zap.Error(err))
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	caretakerRepo := repository.NewCaretakerRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	resetRepo := repository.NewResetTokenRepository(redisClient)

	orgCache := service.NewOrganizationCache(cacheRepo, metricsSvc, cfg.Organizations.CacheTTL, logr, cfg.Organizations.CacheEnabled && redisClient != nil)

	auditSvc := service.NewAuditService(auditRepo, userRepo, validate, logr, metricsSvc, service.AuditConfig{
		PrivilegedActions:     cfg.Logs.PrivilegedActions,
		UnscopedAdminFallback: cfg.Logs.UnscopedAdminFallback,
	})
	// Not tied to the signal context so buffered entries still insert while draining.
	auditSvc.Start(context.Background(), jobs.QueueConfig{
		Workers:    cfg.Logs.Workers,
		BufferSize: cfg.Logs.BufferSize,
		Logger:     logr,
	})

	authSvc := service.NewAuthService(userRepo, caretakerRepo, resetRepo, mailer.New(cfg.SMTP, logr), auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		ResetTokenTTL:     cfg.PasswordReset.TokenTTL,
		ResetLinkBase:     cfg.PasswordReset.LinkBase,
	})
	orgSvc := service.NewOrganizationService(orgRepo, orgCache, auditSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, auditSvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	orgHandler := handler.NewOrganizationHandler(orgSvc)
	userHandler := handler.NewUserHandler(userSvc)
	logHandler := handler.NewLogHandler(auditSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary",
		internalmiddleware.JWT(authSvc),
		internalmiddleware.RequireRoles(models.RoleOwner),
		metricsHandler.Summary,
	)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.OptionalJWT(authSvc))
	{
		api.POST("/register-admin", authHandler.RegisterAdmin)
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.POST("/caretaker-login", authHandler.CaretakerLogin)
		api.POST("/request-password-reset", authHandler.RequestPasswordReset)
		api.POST("/reset-password", authHandler.ResetPassword)

		api.POST("/organization/create", orgHandler.Create)
		api.GET("/organization/get-all", orgHandler.ListAll)
		api.GET("/organizations", orgHandler.ListByOwner)
		api.PUT("/organization/:id", orgHandler.Update)
		api.DELETE("/organization/:id", orgHandler.Delete)

		api.GET("/get-all-admins", userHandler.ListAdmins)
		api.POST("/update-admin/:id", userHandler.UpdateAdmin)
		api.DELETE("/delete-admin/:id", userHandler.DeleteAdmin)

		api.GET("/users", userHandler.List)
		api.GET("/user", userHandler.Get)
		api.POST("/users", userHandler.CreatePatient)
		api.POST("/users/:id", userHandler.UpdatePatient)
		api.DELETE("/users/:id", userHandler.DeletePatient)
		api.POST("/update", userHandler.UpdateProfile)

		api.GET("/logs", logHandler.List)
		api.GET("/logs/export", logHandler.Export)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	auditSvc.Stop()
}
