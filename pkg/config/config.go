package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Storage       StorageConfig
	ASR           ASRConfig
	Groq          GroqConfig
	AssemblyAI    AssemblyAIConfig
	LLM           LLMConfig
	Webhook       WebhookConfig
	Observability ObservabilityConfig
	Pipeline      PipelineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
	MaxUploadMB     int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type            string // "minio" or "s3"
	Endpoint        string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	PresignExpiry   time.Duration
}

// ASRConfig picks the speech-to-text provider: "groq" or "assemblyai"
type ASRConfig struct {
	Provider string
}

// GroqConfig holds the Groq (OpenAI-compatible) Whisper endpoint configuration
type GroqConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

// AssemblyAIConfig holds AssemblyAI configuration
type AssemblyAIConfig struct {
	APIKey   string
	Language string
}

// LLMConfig holds the chat-completion endpoint used for call analysis
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// WebhookConfig holds shared secrets for inbound webhooks
type WebhookConfig struct {
	DiarizerSecret string
}

// ObservabilityConfig holds metrics configuration
type ObservabilityConfig struct {
	ServiceName    string
	MetricsEnabled bool
}

// PipelineConfig tunes transcription and analysis. Loaded with envconfig from PIPELINE_*.
type PipelineConfig struct {
	TurnToleranceMs   int           `envconfig:"TURN_TOLERANCE_MS" default:"150"`
	MinSegmentWords   int           `envconfig:"MIN_SEGMENT_WORDS" default:"2"`
	AnalysisTimeout   time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"45s"`
	LockTTL           time.Duration `envconfig:"LOCK_TTL" default:"2m"`
	ASRMaxElapsed     time.Duration `envconfig:"ASR_MAX_ELAPSED" default:"30s"`
	WorkerEnabled     bool          `envconfig:"WORKER_ENABLED" default:"true"`
	WorkerInterval    time.Duration `envconfig:"WORKER_INTERVAL" default:"30s"`
	WorkerConcurrency int           `envconfig:"WORKER_CONCURRENCY" default:"2"`
	WorkerMaxAttempts int           `envconfig:"WORKER_MAX_ATTEMPTS" default:"3"`
	WorkerBatchSize   int           `envconfig:"WORKER_BATCH_SIZE" default:"8"`
	WorkerJobTimeout  time.Duration `envconfig:"WORKER_JOB_TIMEOUT" default:"2m"`
	QuestionBankPath  string        `envconfig:"QUESTION_BANK_PATH" default:""`
}

// TurnTolerance returns the speaker turn tolerance as a duration
func (p PipelineConfig) TurnTolerance() time.Duration {
	return time.Duration(p.TurnToleranceMs) * time.Millisecond
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := FromEnv()

	var pipeline PipelineConfig
	if err := envconfig.Process("PIPELINE", &pipeline); err != nil {
		return nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}
	config.Pipeline = pipeline

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// FromEnv reads every section except Pipeline from the environment, without validation
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000"),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
			MaxUploadMB:     getEnvAsInt("MAX_UPLOAD_MB", 200),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "interview_analyzer"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", "your-access-secret-change-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", "15m"),
			Issuer:       getEnv("JWT_ISSUER", "interview-analyzer"),
		},
		Storage: StorageConfig{
			Type:            getEnv("STORAGE_TYPE", "minio"),
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			PublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "call-recordings"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			PresignExpiry:   getEnvAsDuration("STORAGE_PRESIGN_EXPIRY", "1h"),
		},
		ASR: ASRConfig{
			Provider: strings.ToLower(getEnv("ASR_PROVIDER", "groq")),
		},
		Groq: GroqConfig{
			APIKey:   getEnv("GROQ_API_KEY", ""),
			BaseURL:  getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:    getEnv("GROQ_ASR_MODEL", "whisper-large-v3"),
			Language: getEnv("ASR_LANGUAGE", "id"),
		},
		AssemblyAI: AssemblyAIConfig{
			APIKey:   getEnv("ASSEMBLYAI_API_KEY", ""),
			Language: getEnv("ASR_LANGUAGE", "id"),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("LLM_API_KEY", ""),
			BaseURL:     getEnv("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
			Model:       getEnv("LLM_MODEL", "gemini-2.0-flash"),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.2),
		},
		Webhook: WebhookConfig{
			DiarizerSecret: getEnv("DIARIZER_WEBHOOK_SECRET", ""),
		},
		Observability: ObservabilityConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "interview-analyzer"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.ASR.Provider {
	case "groq":
		if c.Groq.APIKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required when ASR_PROVIDER=groq")
		}
	case "assemblyai":
		if c.AssemblyAI.APIKey == "" {
			return fmt.Errorf("ASSEMBLYAI_API_KEY is required when ASR_PROVIDER=assemblyai")
		}
	default:
		return fmt.Errorf("unsupported ASR_PROVIDER %q", c.ASR.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.Pipeline.AnalysisTimeout <= 0 {
		return fmt.Errorf("PIPELINE_ANALYSIS_TIMEOUT must be positive")
	}
	if c.Pipeline.TurnToleranceMs < 0 {
		return fmt.Errorf("PIPELINE_TURN_TOLERANCE_MS must not be negative")
	}
	// a retry job that ends before the LLM deadline can never succeed
	if c.Pipeline.WorkerJobTimeout > 0 && c.Pipeline.WorkerJobTimeout <= c.Pipeline.AnalysisTimeout {
		return fmt.Errorf("PIPELINE_WORKER_JOB_TIMEOUT must exceed PIPELINE_ANALYSIS_TIMEOUT")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

func getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, defaultValue), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
