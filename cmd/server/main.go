package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"personaforge/internal/cache"
	"personaforge/internal/config"
	"personaforge/internal/repository"
	"personaforge/internal/service"
	"personaforge/internal/transport/rest"
	"personaforge/internal/transport/ws"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	ctx := context.Background()
	cfg := config.Load()

	// Interpreter config
	interpCfg := config.DefaultInterpreterConfig()
	if interpCfg.IsEnabled() {
		logger.Info("interpreter configured",
			zap.String("abbreviate", interpCfg.Models.Abbreviate),
			zap.String("profile", interpCfg.Models.Profile))
	} else {
		logger.Warn("interpreter API key not set, using local fallbacks")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal("mongo ping failed", zap.Error(err))
	}
	logger.Info("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := strings.TrimPrefix(cfg.RedisAddr, "redis://")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("redis ping failed", zap.Error(err))
	}
	logger.Info("connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub(logger)

	// Initialize repositories
	datasetRepo := repository.NewDatasetRepo(db)
	respondentRepo := repository.NewRespondentRepo(db)
	runRepo := repository.NewRunRepo(db)

	// Initialize caches
	runCache := cache.NewRunCache(rdb)
	profileCache := cache.NewProfileCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService()
	interpreter := service.NewInterpreterServiceWithConfig(interpCfg)
	datasetSvc := service.NewDatasetService(datasetRepo, respondentRepo, interpreter, logger)
	segmentationSvc := service.NewSegmentationService(
		runRepo, respondentRepo, datasetRepo, runCache, profileCache, interpreter, logger)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	segmentationSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:         authSvc,
		DatasetService:      datasetSvc,
		SegmentationService: segmentationSvc,
		WSHub:               wsHub,
		Logger:              logger,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen and serve failed", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func newLogger() *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if os.Getenv("LOG_LEVEL") == "debug" {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
