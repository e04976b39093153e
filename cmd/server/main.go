package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storyboard-server/internal/api"
	"storyboard-server/internal/config"
	"storyboard-server/internal/database"
	"storyboard-server/internal/delivery/websocket"
	"storyboard-server/internal/logger"
	"storyboard-server/internal/messaging"
	"storyboard-server/internal/repository"
	"storyboard-server/internal/service"
	"storyboard-server/pkg/ai"
)

func main() {
	cfg := config.Load()

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info("Starting Storyboard Server...", zap.String("env", cfg.AppEnv))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- База данных ---
	pool, err := database.NewPool(ctx, cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(pool, appLogger); err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// --- Репозитории ---
	settingsRepo := repository.NewPgSettingsRepository(pool, appLogger)
	characterRepo := repository.NewPgCharacterRepository(pool, appLogger)
	frameRepo := repository.NewPgFrameRepository(pool, appLogger)
	styleRepo := repository.NewPgStyleRepository(pool, appLogger)
	renderCache := repository.NewRedisRenderCache(redisClient, appLogger)

	// --- AI-ядро ---
	retryCfg := ai.RetryConfig{MaxRetries: cfg.AI.MaxRetries, BaseDelay: cfg.AI.BaseDelay}
	settingsProvider := service.NewSettingsProvider(settingsRepo)
	caller := ai.NewCaller(settingsProvider, retryCfg)
	prober := ai.NewProber(caller)

	settings, err := settingsRepo.Get(ctx)
	if err != nil {
		appLogger.Fatal("Failed to load project settings", zap.Error(err))
	}
	textGen, err := ai.NewTextGenerator(settings.TextBackend, caller, retryCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize text backend", zap.Error(err))
	}
	tasks := ai.NewTasks(caller, textGen)

	// --- Хранилище изображений и отрисовка ---
	imageStore, err := service.NewImageStore(cfg.Images, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize image store", zap.Error(err))
	}
	renderer := service.NewFrameRenderService(appLogger, tasks, frameRepo, renderCache, imageStore, cfg.Redis.CacheTTL)

	// --- RabbitMQ: публикация задач и прием результатов ---
	conn := messaging.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ReconnectDelay, appLogger)
	if conn == nil {
		appLogger.Fatal("Failed to connect to RabbitMQ")
	}
	defer conn.Close()

	taskPublisher, err := messaging.NewRabbitPublisher(conn, cfg.RabbitMQ.TaskQueue, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create task publisher", zap.Error(err))
	}
	defer taskPublisher.Close()

	// --- WebSocket и пересылка результатов отрисовки ---
	wsManager := websocket.NewManager(appLogger)
	wsManager.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		messaging.Consume(ctx, conn, cfg.RabbitMQ.ResultQueue, cfg.RabbitMQ.ConsumerName,
			&renderResultForwarder{logger: appLogger, ws: wsManager}, appLogger)
	}()

	// --- Сервис и HTTP API ---
	svc := service.NewStoryboardService(appLogger,
		settingsRepo, characterRepo, frameRepo, styleRepo,
		tasks, prober, renderer, taskPublisher)

	handler := api.NewHandler(svc, appLogger)
	router := api.NewRouter(cfg, appLogger, handler, wsManager, imageStore.Dir())

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		appLogger.Info("HTTP server listening", zap.String("port", cfg.HTTP.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down Storyboard Server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}

	cancel()
	wg.Wait()
	appLogger.Info("Storyboard Server shut down gracefully")
}

// renderResultForwarder пересылает результаты фоновой отрисовки в websocket.
type renderResultForwarder struct {
	logger *zap.Logger
	ws     *websocket.Manager
}

func (f *renderResultForwarder) HandleDelivery(_ context.Context, msg amqp091.Delivery) bool {
	var result messaging.FrameRenderResult
	if err := json.Unmarshal(msg.Body, &result); err != nil {
		f.logger.Error("результат отрисовки не разобран", zap.Error(err))
		return true
	}
	f.ws.Broadcast(websocket.Message{Type: "render_result", Payload: result})
	return true
}
