package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tutor-server/internal/ai"
	"tutor-server/internal/artifact"
	"tutor-server/internal/auth"
	"tutor-server/internal/catalog"
	"tutor-server/internal/config"
	"tutor-server/internal/database"
	"tutor-server/internal/handler"
	"tutor-server/internal/interfaces"
	"tutor-server/internal/locker"
	"tutor-server/internal/messaging"
	"tutor-server/internal/middleware"
	"tutor-server/internal/service"
	"tutor-server/pkg/logger"
	"tutor-server/pkg/taskmanager"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
)

const (
	connectRetries    = 5
	connectRetryDelay = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	taskCleanupPeriod = 10 * time.Minute
)

func main() {
	_ = godotenv.Load()
	log.Println("Запуск Tutor Server...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logr, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "tutor-server",
	})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer logr.Sync()
	logr.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	// pkg/migration и pkg/taskmanager пишут через zerolog
	if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- PostgreSQL ---
	dbPool, err := database.NewPool(ctx, database.PoolConfig{
		DSN:         cfg.GetDSN(),
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
	})
	if err != nil {
		logr.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer dbPool.Close()
	logr.Info("Успешное подключение к PostgreSQL")

	if err := database.ApplyMigrations(dbPool); err != nil {
		logr.Fatal("Не удалось применить миграции", zap.Error(err))
	}

	roomRepo := database.NewPgRoomRepository(logr)
	messageRepo := database.NewPgMessageRepository(logr)
	headlineRepo := database.NewPgHeadlineRepository(logr)
	exerciseRepo := database.NewPgExerciseRepository(logr)

	// --- Каталог упражнений ---
	var store catalog.Store
	switch cfg.ExerciseSource {
	case config.ExerciseSourcePostgres:
		store = catalog.NewPgStore(dbPool, exerciseRepo, cfg.ExerciseRefreshInterval, logr)
	default:
		store = catalog.NewFileStore(cfg.ExercisesFile, logr)
	}
	if snap, err := store.Snapshot(ctx); err != nil {
		// Не фатально: запросы получат 503, пока источник не появится.
		logr.Warn("Exercise catalog is not available yet", zap.Error(err))
	} else {
		logr.Info("Exercise catalog loaded",
			zap.Int("exercises", len(snap.Exercises)),
			zap.Int("rejected", snap.Rejected),
		)
	}

	// --- Генеративный помощник ---
	aiClient, err := ai.NewClient(ai.Config{
		ClientType: cfg.AIClientType,
		BaseURL:    cfg.AIBaseURL,
		APIKey:     cfg.AIAPIKey,
		Model:      cfg.AIModel,
		Timeout:    cfg.AITimeout,
	}, logr)
	if err != nil {
		logr.Fatal("Не удалось создать AI клиента", zap.Error(err))
	}
	retrying := ai.NewRetrying(aiClient, ai.RetryConfig{
		MaxAttempts:    cfg.AIMaxAttempts,
		BaseDelay:      cfg.AIBaseRetryDelay,
		AttemptTimeout: cfg.AITimeout,
	}, logr)
	fallback := ai.NewFallback(retrying, cfg.AISystemPrompt, logr)

	svgStore, err := artifact.NewSVGStore(cfg.ArtifactDir, cfg.ArtifactPublicBaseURL, logr)
	if err != nil {
		logr.Fatal("Не удалось подготовить каталог иллюстраций", zap.Error(err))
	}

	// --- Блокировки комнат ---
	var roomLocker locker.Locker = locker.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		redisClient, err := locker.ConnectRedis(ctx, &redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB}, connectRetries, connectRetryDelay, logr)
		if err != nil {
			logr.Fatal("Не удалось подключиться к Redis", zap.Error(err))
		}
		defer redisClient.Close()
		roomLocker = locker.NewRedisLocker(redisClient, cfg.LockTTL, logr)
		logr.Info("Room locks are shared through Redis", zap.String("addr", cfg.RedisAddr))
	}

	// --- Названия комнат ---
	titleService := service.NewTitleService(dbPool, roomRepo, messageRepo, fallback, logr)

	var titles interfaces.TitleTaskPublisher
	var consumer *messaging.TitleTaskConsumer
	tasks := taskmanager.New(taskmanager.Config{MaxTasks: 20, TaskTimeout: 2 * cfg.AITimeout * time.Duration(cfg.AIMaxAttempts)})

	if cfg.RabbitMQURL != "" {
		rabbitConn, err := messaging.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, connectRetries, connectRetryDelay, logr)
		if err != nil {
			logr.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
		}
		defer rabbitConn.Close()

		publisher, err := messaging.NewRabbitMQTitlePublisher(rabbitConn, cfg.TitleTaskQueue, logr)
		if err != nil {
			logr.Fatal("Не удалось создать TitleTaskPublisher", zap.Error(err))
		}
		defer publisher.Close()
		titles = publisher

		consumer = messaging.NewTitleTaskConsumer(rabbitConn, titleService, cfg.TitleTaskQueue, cfg.AITimeout*time.Duration(cfg.AIMaxAttempts), logr)
		if err := consumer.Start(ctx); err != nil {
			logr.Fatal("Не удалось запустить консьюмер задач", zap.Error(err))
		}
	} else {
		titles = messaging.NewLocalTitlePublisher(tasks, titleService, logr)
		logr.Info("RABBITMQ_URL is not set, title tasks run in-process")
	}
	go cleanupTasks(ctx, tasks)

	// --- Сервис и HTTP ---
	tutorService := service.NewTutorService(service.TutorDeps{
		DB:        dbPool,
		Tx:        database.NewTransactor(dbPool),
		Rooms:     roomRepo,
		Messages:  messageRepo,
		Headlines: headlineRepo,
		Catalog:   store,
		Locker:    roomLocker,
		Cache:     service.NewEngineCache(cfg.EngineCacheSize, cfg.EngineCacheTTL),
		AI:        fallback,
		Artifacts: svgStore,
		Titles:    titles,
		Engine: service.EngineOptions{
			RecentWindow:    cfg.RecentWindow,
			EndOnExhaustion: cfg.EndOnExhaustion,
			RNGSeed:         cfg.RNGSeed,
		},
		Logger: logr,
	})

	verifier, err := auth.NewJWTVerifier(cfg.JWTSecret, logr)
	if err != nil {
		logr.Fatal("Failed to create JWT Verifier", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.EchoZapLogger(logr))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if strings.HasPrefix(cfg.ArtifactPublicBaseURL, "/") {
		e.Static(cfg.ArtifactPublicBaseURL, svgStore.Dir())
	}

	handler.NewTutorHandler(tutorService, verifier, logr).RegisterRoutes(e)

	go func() {
		logr.Info("Tutor сервер слушает", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logr.Fatal("Ошибка запуска HTTP сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("Получен сигнал завершения, начинаем graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logr.Error("Ошибка при graceful shutdown Echo", zap.Error(err))
	}
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logr.Error("Ошибка остановки консьюмера", zap.Error(err))
		}
	}
	if err := tasks.Shutdown(shutdownCtx); err != nil {
		logr.Warn("Фоновые задачи не завершились вовремя", zap.Error(err))
	}

	logr.Info("Tutor Server успешно остановлен")
}

func cleanupTasks(ctx context.Context, tasks *taskmanager.TaskManager) {
	ticker := time.NewTicker(taskCleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tasks.CleanupTasks(taskCleanupPeriod)
		}
	}
}
