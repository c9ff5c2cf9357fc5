package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/alerts"
	"github.com/bryancris/tasqi-sub001/internal/audio"
	"github.com/bryancris/tasqi-sub001/internal/client"
	"github.com/bryancris/tasqi-sub001/internal/config"
	"github.com/bryancris/tasqi-sub001/internal/handler"
	"github.com/bryancris/tasqi-sub001/internal/kvstore"
	"github.com/bryancris/tasqi-sub001/internal/middleware"
	"github.com/bryancris/tasqi-sub001/internal/overlay"
	"github.com/bryancris/tasqi-sub001/internal/platform"
	"github.com/bryancris/tasqi-sub001/internal/push"
	"github.com/bryancris/tasqi-sub001/internal/queue"
	"github.com/bryancris/tasqi-sub001/internal/reminder"
	"github.com/bryancris/tasqi-sub001/internal/repository"
	"github.com/bryancris/tasqi-sub001/internal/service"
	"github.com/bryancris/tasqi-sub001/internal/subscription"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Clear any protection flags a previous session left stuck
	platform.ResetProtections()

	// Connect to database
	db, err := connectToDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis-backed device stores (if enabled)
	stores := kvstore.NewMemoryFactory()
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logger.Warn("Failed to connect to Redis, using in-memory device stores", zap.Error(err))
		} else {
			logger.Info("Connected to Redis", zap.String("address", cfg.Redis.URL))
			stores = kvstore.NewRedisFactory(redisClient)
		}
	}

	// Initialize Kafka writer (if enabled)
	var kafkaWriter *kafka.Writer
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		kafkaWriter = &kafka.Writer{
			Addr:     kafka.TCP(cfg.Kafka.Brokers...),
			Topic:    cfg.Kafka.Topic,
			Balancer: &kafka.LeastBytes{},
		}
		logger.Info("Initialized Kafka writer", zap.Strings("brokers", cfg.Kafka.Brokers))
	}
	events := push.NewEventPublisher(kafkaWriter, logger)

	// Create repositories
	tokenRepo := repository.NewDeviceTokenRepository(db, logger)
	subscriptionRepo := repository.NewPushSubscriptionRepository(db, logger)
	taskRepo := repository.NewTaskRepository(db, logger)

	// Create push delivery channels
	var webPushSender *push.WebPushSender
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		webPushSender = push.NewWebPushSender(
			subscriptionRepo,
			cfg.Push.VAPIDPublicKey,
			cfg.Push.VAPIDPrivateKey,
			cfg.Push.VAPIDSubscriber,
			cfg.Push.ServiceWorkerTTL,
			logger,
		)
	}
	var functionClient *client.PushFunctionClient
	if cfg.Push.FunctionURL != "" {
		functionClient = client.NewPushFunctionClient(cfg.Push.FunctionURL, cfg.Server.ServiceKey, cfg.Push.RequestTimeout, logger)
	}
	dispatcher := push.NewDispatcher(webPushSender, functionClient, logger)

	// Delivery queues, one per user device store
	var queueMu sync.Mutex
	queues := make(map[string]*queue.DeliveryQueue)
	queueFor := func(ctx context.Context, userID string) *queue.DeliveryQueue {
		queueMu.Lock()
		defer queueMu.Unlock()
		if q, ok := queues[userID]; ok {
			return q
		}
		q := queue.NewDeliveryQueue(stores(userID), cfg.Queue.MaxRetries, cfg.Queue.RetryDelay, logger)
		q.Load(ctx)
		queues[userID] = q
		return q
	}

	// Alert managers, one per user
	registry := alerts.NewRegistry(func(userID string) *alerts.Manager {
		kv := stores(userID)
		player := audio.NewPlayer(push.NewAudioBridge(events, userID), kv, cfg.Audio.PlaybackTimeout, cfg.Audio.CacheDuration, logger)
		return alerts.NewManager(userID, kv, player, queueFor(context.Background(), userID), dispatcher, events, cfg.Notifications, logger)
	})
	defer registry.Close()

	// Create services
	notificationService := service.NewNotificationService(registry, logger)
	queueService := service.NewQueueService(queueFor, notificationService, logger)

	// Subscription store strategies are request-scoped: platform and
	// bridges depend on what the device reports per call
	subscriptionStores := func(ctx context.Context, userID string, env platform.Env, bridge subscription.PushBridge, permissions subscription.PermissionAPI) subscription.Store {
		return subscription.New(env, subscription.Deps{
			UserID:            userID,
			KV:                stores(userID),
			Tokens:            tokenRepo,
			Subscriptions:     subscriptionRepo,
			Bridge:            bridge,
			Permissions:       permissions,
			PermissionTimeout: cfg.Subscription.PermissionTimeout,
			Logger:            logger,
		})
	}

	// Overlay guard coordination
	coordination := overlay.NewCoordination()
	guardFor := func(userID string) *overlay.Guard {
		bridge := push.NewInteractionBridge(events, userID)
		return overlay.NewGuard(coordination, bridge, bridge, cfg.Overlay, logger)
	}

	// Start the reminder scan loop
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	zones := reminder.NewKVZoneResolver(func(userID string) kvstore.Store { return stores(userID) }, logger)
	runner := reminder.NewRunner(taskRepo, notificationService, zones, cfg.Reminder.ScanInterval, cfg.Reminder.Debounce, logger)
	go runner.Run(runCtx)

	// Create HTTP server
	router := setupRouter(cfg, notificationService, queueService, subscriptionStores, guardFor, coordination, stores, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close Kafka writer if initialized
	if kafkaWriter != nil {
		kafkaWriter.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func connectToDB(dbConfig config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName,
		dbConfig.SSLMode,
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}

func setupRouter(
	cfg *config.Config,
	notificationService *service.NotificationService,
	queueService *service.QueueService,
	subscriptionStores handler.StoreFactory,
	guardFor handler.GuardFactory,
	coordination *overlay.Coordination,
	stores kvstore.Factory,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, logger))
		authed.Use(middleware.Interaction(middleware.StoreFactory(stores), logger))

		// ==================== NOTIFICATION ROUTES ====================
		notifHandler := handler.NewNotificationHandler(notificationService, queueService, logger)
		authed.POST("/notifications", notifHandler.ShowNotification)
		authed.GET("/notifications", notifHandler.GetNotifications)
		authed.PUT("/notifications/:id/read", notifHandler.DismissNotification)
		authed.PUT("/notifications/groups/:group/read", notifHandler.DismissGroup)
		authed.DELETE("/notifications", notifHandler.ClearNotifications)
		authed.POST("/connectivity", notifHandler.ReportConnectivity)

		// ==================== SUBSCRIPTION ROUTES ====================
		subHandler := handler.NewSubscriptionHandler(subscriptionStores, logger)
		authed.GET("/subscription/status", subHandler.GetStatus)
		authed.POST("/subscription/enable", subHandler.Enable)
		authed.POST("/subscription/disable", subHandler.Disable)

		// ==================== OVERLAY ROUTES ====================
		overlayHandler := handler.NewOverlayHandler(guardFor, coordination, logger)
		authed.POST("/overlay/panels", overlayHandler.RegisterPanel)
		authed.DELETE("/overlay/panels/:id", overlayHandler.UnregisterPanel)
		authed.POST("/overlay/protect", overlayHandler.Protect)
		authed.POST("/overlay/reset", overlayHandler.Reset)

		// ==================== SERVICE API ====================
		serviceAPI := v1.Group("/service")
		{
			// Protected with service key
			serviceAPI.Use(middleware.ServiceAuthMiddleware(cfg.Server.ServiceKey, logger))
			serviceAPI.POST("/queue/drain", notifHandler.DrainQueue)
		}
	}

	return router
}
