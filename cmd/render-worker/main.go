package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storyboard-server/internal/config"
	"storyboard-server/internal/logger"
	"storyboard-server/internal/messaging"
	"storyboard-server/internal/repository"
	"storyboard-server/internal/service"
	"storyboard-server/internal/worker"
	"storyboard-server/pkg/ai"
)

func main() {
	cfg, err := worker.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info("Starting Render Worker...", zap.String("env", cfg.AppEnv))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- База данных ---
	pool, err := pgxpool.New(ctx, cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		appLogger.Fatal("Failed to ping database", zap.Error(err))
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// --- Репозитории и AI-ядро ---
	settingsRepo := repository.NewPgSettingsRepository(pool, appLogger)
	frameRepo := repository.NewPgFrameRepository(pool, appLogger)
	renderCache := repository.NewRedisRenderCache(redisClient, appLogger)

	retryCfg := ai.RetryConfig{MaxRetries: cfg.AIMaxRetries, BaseDelay: cfg.AIBaseDelay}
	settingsProvider := service.NewSettingsProvider(settingsRepo)
	caller := ai.NewCaller(settingsProvider, retryCfg)
	// Текстовый бэкенд воркеру не нужен: он только отрисовывает кадры.
	tasks := ai.NewTasks(caller, nil)

	imageStore, err := service.NewImageStore(config.ImageStoreConfig{
		SavePath:      cfg.ImageSavePath,
		PublicBaseURL: cfg.ImagePublicBaseURL,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize image store", zap.Error(err))
	}
	renderer := service.NewFrameRenderService(appLogger, tasks, frameRepo, renderCache, imageStore, cfg.CacheTTL)

	// --- RabbitMQ ---
	conn := messaging.Connect(ctx, cfg.RabbitMQURL, cfg.ReconnectDelay, appLogger)
	if conn == nil {
		appLogger.Fatal("Failed to connect to RabbitMQ")
	}
	defer conn.Close()

	resultPublisher, err := messaging.NewRabbitPublisher(conn, cfg.ResultQueue, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create result publisher", zap.Error(err))
	}
	defer resultPublisher.Close()

	handler := worker.NewHandler(appLogger, renderer, resultPublisher, cfg.PushGatewayURL)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		messaging.Consume(ctx, conn, cfg.TaskQueue, cfg.ConsumerName, handler, appLogger)
	}()

	appLogger.Info("Render Worker started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down Render Worker...")
	cancel()
	wg.Wait()
	appLogger.Info("Render Worker shut down gracefully")
}
