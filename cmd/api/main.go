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

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/johnquangdev/interview-analyzer/docs"
	pkgvalidator "github.com/johnquangdev/interview-analyzer/pkg/validator"

	"github.com/johnquangdev/interview-analyzer/internal/adapter/handler"
	"github.com/johnquangdev/interview-analyzer/internal/adapter/repository"
	"github.com/johnquangdev/interview-analyzer/internal/infrastructure/cache"
	"github.com/johnquangdev/interview-analyzer/internal/infrastructure/database"
	httpmw "github.com/johnquangdev/interview-analyzer/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/interview-analyzer/internal/infrastructure/observe"
	"github.com/johnquangdev/interview-analyzer/internal/infrastructure/storage"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/analysis"
	callUsecase "github.com/johnquangdev/interview-analyzer/internal/usecase/call"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/transcript"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/transcription"
	pkgai "github.com/johnquangdev/interview-analyzer/pkg/ai"
	"github.com/johnquangdev/interview-analyzer/pkg/config"
	"github.com/johnquangdev/interview-analyzer/pkg/jwt"
)

// @title           Interview Analyzer API
// @version         1.0
// @description     Call transcription with speaker attribution and LLM interview analysis

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(logger)

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.RequestID())

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human} | ${id}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Metrics
	var metrics *observe.Metrics
	if cfg.Observability.MetricsEnabled {
		log.Println("📈 Initializing metrics...")
		shutdownMetrics, err := observe.InitProvider(rootCtx, observe.ProviderConfig{
			ServiceName:    cfg.Observability.ServiceName,
			ServiceVersion: "1.0.0",
		})
		if err != nil {
			log.Fatalf("Failed to initialize metrics provider: %v", err)
		}
		defer shutdownMetrics(context.Background())

		metrics, err = observe.NewMetrics(otel.GetMeterProvider())
		if err != nil {
			log.Fatalf("Failed to create metric instruments: %v", err)
		}
		e.Use(metrics.EchoMiddleware())
	}

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run AutoMigrate only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or run `pipeline migrate up`.")
		}
		log.Println("🔄 Running GORM AutoMigrate (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run AutoMigrate: %v", err)
		}
	} else {
		log.Println("🔄 Skipping GORM AutoMigrate; use `pipeline migrate up` for schema migrations")
	}

	// Analysis lock: Redis when enabled, otherwise in-process
	var locker analysis.Locker
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		locker = cache.NewRedisLocker(redisClient)
	} else {
		log.Println("⚠️  Redis disabled, analysis lock is local to this instance")
		memStore := cache.NewMemoryStore()
		defer memStore.Close()
		locker = memStore
	}

	// Object storage
	log.Println("🗄️  Connecting to object storage...")
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create MinIO client: %v", err)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	callRepo := repository.NewCallRepository(db)
	recordingRepo := repository.NewRecordingRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Initialize AI components
	log.Println("🤖 Initializing AI components...")
	transcriber := pkgai.NewTranscriber(cfg, logger)
	llmClient := pkgai.NewLLMClient(&cfg.LLM, logger)
	bank, err := config.LoadQuestionBank(cfg.Pipeline.QuestionBankPath)
	if err != nil {
		log.Fatalf("Failed to load question bank: %v", err)
	}
	log.Printf("✅ ASR provider: %s, LLM model: %s", transcriber.Name(), llmClient.Model())

	builder := transcript.NewBuilder(transcript.Options{
		TurnTolerance:   cfg.Pipeline.TurnTolerance(),
		MinSegmentWords: cfg.Pipeline.MinSegmentWords,
	}, logger)

	analysisService := analysis.NewService(
		callRepo,
		recordingRepo,
		reportRepo,
		llmClient,
		bank,
		locker,
		metrics,
		analysis.Options{
			Timeout: cfg.Pipeline.AnalysisTimeout,
			LockTTL: cfg.Pipeline.LockTTL,
		},
		logger,
	)

	transcriptionService := transcription.NewService(
		callRepo,
		recordingRepo,
		minioClient,
		transcriber,
		builder,
		analysisService,
		metrics,
		transcription.Options{
			MaxAudioBytes: int64(cfg.Server.MaxUploadMB) << 20,
			ASRMaxElapsed: cfg.Pipeline.ASRMaxElapsed,
		},
		logger,
	)

	callService := callUsecase.NewCallService(callRepo, recordingRepo, reportRepo, minioClient, logger)

	// Retry worker for analyses that timed out
	if cfg.Pipeline.WorkerEnabled {
		log.Println("🔁 Starting analysis retry worker...")
		worker := analysis.NewWorker(analysisService, callRepo, analysis.WorkerOptions{
			Interval:    cfg.Pipeline.WorkerInterval,
			Concurrency: cfg.Pipeline.WorkerConcurrency,
			MaxAttempts: cfg.Pipeline.WorkerMaxAttempts,
			BatchSize:   cfg.Pipeline.WorkerBatchSize,
			JobTimeout:  cfg.Pipeline.WorkerJobTimeout,
		}, logger)
		go worker.Start(rootCtx)
	}

	// Initialize JWT manager
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(
		cfg,
		handler.NewCallHandler(callService, logger),
		handler.NewTranscriptionHandler(transcriptionService, cfg.Server.MaxUploadMB, logger),
		handler.NewAnalysisHandler(analysisService, logger),
		handler.NewWebhookHandler(callService, cfg.Webhook.DiarizerSecret, logger),
		httpmw.EchoAuth(jwtManager),
	)
	router.Setup(e)

	if cfg.Webhook.DiarizerSecret == "" {
		log.Println("⚠️  DIARIZER_WEBHOOK_SECRET is empty, diarizer webhooks will be rejected")
	}

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
