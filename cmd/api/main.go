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

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/handoff-assistant/pkg/validator"

	"github.com/johnquangdev/handoff-assistant/internal/adapter/handler"
	"github.com/johnquangdev/handoff-assistant/internal/adapter/repository"
	"github.com/johnquangdev/handoff-assistant/internal/domain/repositories"
	"github.com/johnquangdev/handoff-assistant/internal/infrastructure/cache"
	"github.com/johnquangdev/handoff-assistant/internal/infrastructure/database"
	"github.com/johnquangdev/handoff-assistant/internal/infrastructure/storage"
	"github.com/johnquangdev/handoff-assistant/internal/usecase/handoff"
	pkgai "github.com/johnquangdev/handoff-assistant/pkg/ai"
	"github.com/johnquangdev/handoff-assistant/pkg/config"
	pkglogger "github.com/johnquangdev/handoff-assistant/pkg/logger"
)

// @title           Handoff Assistant API
// @version         1.0
// @description     Clinical shift-handoff analysis: structured facts, dose schedule, risk score, omissions and narrative
// @BasePath        /v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := pkglogger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID, "X-Signature"},
	}))

	logger.Info("🔧 Initializing dependencies...")

	// Initialize Database
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	// Production deployments should manage schema via `handoffctl migrate up`
	if cfg.Database.AutoMigrate {
		if cfg.IsProduction() {
			logger.Fatal("DB_AUTO_MIGRATE is enabled in production; run handoffctl migrate instead")
		}
		if err := database.AutoMigrate(db, cfg.Database.MigrationsDir); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	// History cache: Redis when enabled, otherwise in-process
	var historyCache repositories.HistoryCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		historyCache = cache.NewHistoryCache(redisClient, cfg.Redis.HistoryTTL, logger)
		checks["redis"] = redisClient.Ping
	} else {
		memoryStore := cache.NewMemoryStore()
		defer memoryStore.Close()
		historyCache = cache.NewHistoryCache(memoryStore, cfg.Redis.HistoryTTL, logger)
		logger.Info("⚠️ Redis disabled, using in-memory history cache")
	}

	// Archive of raw transcripts and analyses
	var archive repositories.ArchiveStore
	if cfg.Storage.Enabled {
		minioClient, err := storage.NewMinIOClient(&cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		archive = minioClient
	}

	rules, err := handoff.LoadRules(cfg.Pipeline.RulesFile)
	if err != nil {
		logger.Fatal("Failed to load rule tables", zap.Error(err))
	}

	// Initialize repositories
	handoffRepo := repository.NewHandoffRepository(db)
	patientRepo := repository.NewPatientRepository(db)

	extractor := pkgai.NewExtractionClient(&cfg.Extraction)
	pipeline := handoff.NewPipeline(rules,
		handoff.WithLogger(logger),
		handoff.WithExtractionTimeout(cfg.Pipeline.ExtractionTimeout),
		handoff.WithLocale(handoff.ParseLocale(cfg.Pipeline.NarrativeLocale)),
	)
	svc := handoff.NewService(
		handoffRepo,
		patientRepo,
		historyCache,
		archive,
		extractor,
		pipeline,
		cfg.Pipeline.ContextLimit,
		cfg.Pipeline.QueueSize,
		logger,
	)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if err := svc.StartWorkerPool(workerCtx, cfg.Pipeline.Workers); err != nil {
		logger.Fatal("Failed to start worker pool", zap.Error(err))
	}

	router := handler.NewRouter(
		cfg,
		handler.NewHandoffHandler(svc, logger),
		handler.NewPatientHandler(svc, logger),
		handler.NewWebhookHandler(svc, logger),
		checks,
		logger,
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("🚀 Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("❌ Server forced to shutdown", zap.Error(err))
	}
	if err := svc.StopWorkerPool(); err != nil {
		logger.Warn("Worker pool stop", zap.Error(err))
	}

	logger.Info("✅ Server stopped gracefully")
}
