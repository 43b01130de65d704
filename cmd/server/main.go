package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/aura-core/internal/adapter/ai/anthropic"
	"github.com/seu-repo/aura-core/internal/adapter/ai/openai"
	"github.com/seu-repo/aura-core/internal/adapter/cache"
	"github.com/seu-repo/aura-core/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/aura-core/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/aura-core/internal/adapter/queue"
	"github.com/seu-repo/aura-core/internal/adapter/storage/postgres"
	"github.com/seu-repo/aura-core/internal/adapter/stt"
	"github.com/seu-repo/aura-core/internal/adapter/vault"
	wsAdapter "github.com/seu-repo/aura-core/internal/adapter/websocket"
	"github.com/seu-repo/aura-core/internal/composer"
	"github.com/seu-repo/aura-core/internal/dialogue"
	"github.com/seu-repo/aura-core/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/aura-core/internal/nlu"
	"github.com/seu-repo/aura-core/internal/observability/telemetry"
	"github.com/seu-repo/aura-core/internal/orchestrator"
	"github.com/seu-repo/aura-core/internal/ports"
	"github.com/seu-repo/aura-core/internal/service/auth"
	"github.com/seu-repo/aura-core/internal/service/fallback"
	"github.com/seu-repo/aura-core/internal/service/health"
	"github.com/seu-repo/aura-core/internal/skill"
	"github.com/seu-repo/aura-core/pkg/config"
)

const (
	serviceName    = "aura-core"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting AURA conversation engine",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, serviceVersion, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Resolve secrets from Vault when configured
	if cfg.Vault.Enabled {
		secrets, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token)
		if err != nil {
			logger.Fatal("Failed to connect to Vault", zap.Error(err))
		}
		if key, err := secrets.GetModelAPIKey("openai"); err == nil {
			cfg.Providers.OpenAI.APIKey = key
		}
		if key, err := secrets.GetModelAPIKey("anthropic"); err == nil {
			cfg.Providers.Anthropic.APIKey = key
		}
		if url, err := secrets.GetDatabaseCredentials(); err == nil {
			cfg.Database.URL = url
		}
	}

	// 5. Initialize the session snapshot store (Redis, in-memory fallback)
	var kv ports.Cache
	if cfg.Redis.URL != "" {
		kv, err = cache.NewRedisCache(cfg.Redis.URL, logger)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory session store", zap.Error(err))
			kv = cache.NewLocalCache(time.Minute, logger)
		}
	} else {
		kv = cache.NewLocalCache(time.Minute, logger)
	}
	defer kv.Close()

	store := cache.NewSnapshotStore(kv, cfg.Session.TTL, cfg.Session.TTL, logger)

	// 6. Initialize the turn audit log (optional)
	var turns ports.TurnRepository
	var db *gorm.DB
	if cfg.Database.URL != "" {
		db, err = postgres.NewConnection(cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer postgres.Close(db)

		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		turns = postgres.NewTurnRepository(db)
	}

	// 7. Initialize Message Queue (NATS by default, RabbitMQ opt-in)
	var messageQueue queue.MessageQueue
	if cfg.RabbitMQ.Enabled {
		messageQueue, err = queue.NewRabbitMQQueue(cfg.RabbitMQ.URL, logger)
	} else {
		messageQueue, err = queue.NewNATSQueue(cfg.NATS.URL, logger)
	}
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer messageQueue.Close()

	// 8. Build the skill registry. Closed from here on; handlers added later
	// would be unreachable.
	registry, err := skill.NewRegistry(logger, skill.Builtin(logger)...)
	if err != nil {
		logger.Fatal("Failed to build skill registry", zap.Error(err))
	}

	// 9. Wire the language components
	classifier, chatBackend := buildNLU(cfg, registry, logger)
	extractor := nlu.NewRuleSlotExtractor(registry, logger)
	confirmer := nlu.NewConfirmationInterpreter()
	if chatBackend != nil {
		chatBackend = fallback.NewGuardedBackend(chatBackend, circuitbreaker.New("chat-backend", logger))
	}
	fallbackGen := fallback.NewGenerator(chatBackend, logger)

	// 10. Observer hub and outbound composer
	wsHub := wsAdapter.NewHub()
	go wsHub.Run()

	comp := composer.New(messageQueue, wsHub, cfg.Synthesis.Subject, cfg.Synthesis.DefaultVoiceID, logger)

	// 11. Orchestrator: one worker per session, TTL sweep in the background
	engine := orchestrator.New(registry, classifier, extractor, confirmer, fallbackGen, store, turns, comp, orchestrator.Config{
		Dialogue: dialogue.Config{
			IntentThreshold:      cfg.Dialogue.IntentThreshold,
			StateTimeout:         cfg.Dialogue.StateTimeout,
			HandlerTimeout:       cfg.Dialogue.HandlerTimeout,
			ClassifyRetryBackoff: cfg.Dialogue.ClassifyRetryBackoff,
			HistoryLimit:         cfg.Dialogue.HistoryLimit,
		},
		SessionTTL:    cfg.Session.TTL,
		SweepInterval: cfg.Session.SweepInterval,
		QueueCapacity: cfg.Session.QueueCapacity,
		TurnTimeout:   cfg.Session.TurnTimeout,
	}, logger)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	go engine.Run(rootCtx)

	// 12. Subscribe to broker-delivered transcripts and room events
	consumer := queue.NewTranscriptConsumer(messageQueue, engine, logger)
	if err := consumer.Start(rootCtx, cfg.Transcripts.Subject, cfg.Transcripts.RoomSubject); err != nil {
		logger.Fatal("Failed to start transcript consumer", zap.Error(err))
	}

	// 13. Optional direct feed from the speech service
	if cfg.Transcripts.FeedURL != "" {
		feed := stt.NewFeedClient(cfg.Transcripts.FeedURL, cfg.Transcripts.FeedToken, engine, logger)
		if err := feed.Connect(rootCtx); err != nil {
			logger.Warn("Speech feed connect failed, will retry in background", zap.Error(err))
		}
		go feed.Run(rootCtx)
		defer feed.Close()
	}

	// 14. Auth and health services
	authService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, logger)
	healthService := health.NewService(&health.Config{
		Version: serviceVersion,
		Cache:   kv,
		DB:      db,
		Queue:   messageQueue,
		Engine:  engine,
	}, logger)

	// 15. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	app.Use(middleware.RateLimit())
	if cfg.CircuitBreaker.Enabled {
		app.Use(middleware.CircuitBreaker(logger))
	}

	// Health and metrics
	health.NewFiberHandler(healthService).RegisterRoutes(app)
	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1")
	protected := v1.Group("", middleware.AuthRequired(authService))

	transcriptHandler := handlers.NewTranscriptHandler(engine, logger)
	protected.Post("/transcripts", transcriptHandler.Dispatch)

	sessionHandler := handlers.NewSessionHandler(engine, turns, logger)
	protected.Get("/sessions/:id", sessionHandler.Get)
	protected.Get("/sessions/:id/turns", sessionHandler.Turns)
	protected.Delete("/sessions/:id", sessionHandler.End)

	skillsHandler := handlers.NewSkillsHandler(registry)
	protected.Get("/skills", skillsHandler.List)

	// WebSocket routes
	streamHandler := wsAdapter.NewTranscriptStreamHandler(engine, logger)
	wsAdapter.SetupStreamRoutes(app, streamHandler, wsHub)

	// 16. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 17. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	rootCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	engine.Shutdown()

	logger.Info("Server exited gracefully")
}

// buildNLU selects the intent classifier and fallback chat backend from the
// configured providers. With no OpenAI key the keyword classifier keeps the
// engine functional offline; with no Anthropic key fallback turns reuse the
// OpenAI chat model, and with neither the static apology covers them.
func buildNLU(cfg *config.Config, registry *skill.Registry, logger *zap.Logger) (ports.IntentClassifier, ports.ChatBackend) {
	var chatBackend ports.ChatBackend

	if cfg.Providers.Anthropic.APIKey != "" {
		chatBackend = anthropic.NewClient(cfg.Providers.Anthropic.APIKey, cfg.Providers.Anthropic.Model, logger)
	}

	if cfg.Providers.OpenAI.APIKey == "" {
		logger.Info("No embedding provider configured, using keyword classifier")
		return nlu.NewKeywordClassifier(registry, logger), chatBackend
	}

	oa := openai.NewClient(cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.EmbeddingModel, cfg.Providers.OpenAI.ChatModel, logger)
	if chatBackend == nil {
		chatBackend = oa
	}

	embedder := nlu.NewGuardedEmbedder(oa, circuitbreaker.New("embeddings", logger))
	classifier := nlu.NewEmbeddingClassifier(embedder, registry, logger)

	primeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := classifier.Prime(primeCtx); err != nil {
		logger.Warn("Embedding classifier prime failed, using keyword classifier", zap.Error(err))
		return nlu.NewKeywordClassifier(registry, logger), chatBackend
	}

	return classifier, chatBackend
}
