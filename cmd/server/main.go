package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/homereach/backend/internal/application/identity"
	sessionapp "github.com/homereach/backend/internal/application/session"
	"github.com/homereach/backend/internal/domain/visitor"
	"github.com/homereach/backend/internal/infrastructure/auth"
	"github.com/homereach/backend/internal/infrastructure/config"
	"github.com/homereach/backend/internal/infrastructure/logger"
	"github.com/homereach/backend/internal/infrastructure/persistence"
	"github.com/homereach/backend/internal/infrastructure/slot"
	"github.com/homereach/backend/internal/interfaces/http/handler"
	"github.com/homereach/backend/internal/interfaces/http/middleware"
	"github.com/homereach/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting HomeReach identity backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Identity slot stores: Redis primary, database-backed backup. Losing
	// Redis at startup degrades the primary slot to process memory instead
	// of blocking the whole service; the backup slot still recovers
	// identifiers across restarts.
	var primary slot.Store
	redisStore, err := slot.NewRedisStore(slot.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Identity.SlotKeyPrefix)
	if err != nil {
		log.Warn("Redis unavailable, primary identity slot degraded to process memory", zap.Error(err))
		primary = slot.NewMemoryStore()
	} else {
		primary = redisStore
		log.Info("Redis connected successfully")
	}
	backup := slot.NewGormStore(db.DB)

	// Application services
	provider := identityapp.NewProvider(primary, backup, identityapp.Config{
		PrimaryKey: cfg.Identity.PrimaryKey,
		BackupKey:  cfg.Identity.BackupKey,
		BackupTTL:  cfg.Identity.BackupTTL,
		LegacyKeys: cfg.Identity.LegacyKeys,
	}, log)
	reconciler := identityapp.NewReconciler(provider, log)

	recordRepo := persistence.NewGormSessionRecordRepository(db.DB)
	syncService := sessionapp.NewSyncService(recordRepo, visitor.MergeOptions{
		FreshnessFields: cfg.Session.FreshnessFields,
		MaxDepth:        cfg.Session.MaxMergeDepth,
	}, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Handlers
	identityHandler := handler.NewIdentityHandler(provider, reconciler, log)
	sessionHandler := handler.NewSessionHandler(syncService, log)
	systemHandler := handler.NewSystemHandler(db)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning, unauthenticated)
	engine.GET("/health", systemHandler.Health)

	// API routes behind JWT authentication
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Logger:     log,
	}))

	identityRoutes := router.NewDomainGroup("identity", "/identity")
	identityRoutes.GET("", identityHandler.GetIdentity)
	identityRoutes.GET("/status", identityHandler.GetIdentityStatus)
	identityRoutes.POST("/reconcile", identityHandler.Reconcile)
	identityRoutes.POST("/rollback",
		middleware.RequireScope(auth.ScopeIdentityAdmin),
		identityHandler.Rollback)
	r.Register(identityRoutes)

	sessionRoutes := router.NewDomainGroup("session", "/session")
	sessionRoutes.GET("", sessionHandler.GetSession)
	sessionRoutes.POST("/sync", sessionHandler.Sync)
	r.Register(sessionRoutes)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
