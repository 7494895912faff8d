package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Interview InterviewConfig
	Memory    MemoryConfig
	Ai        AIConfig
	Keys      APIKeys
	Auth      AuthConfig
	Otel      OtelConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	EventTopic         string
}

type DatabaseConfig struct {
	Connection string // empty disables the archive
}

type InterviewConfig struct {
	MaxRounds              int
	InitialDifficulty      string
	OpeningQuestion        string // empty: generated per session
	OracleTimeout          time.Duration
	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration
	DecisionOracle         string // "rules" or "llm"
}

type MemoryConfig struct {
	Scope               string // "candidate" or "session"
	QueryTopK           int
	EmbeddingProvider   string // "hash" or "ollama"
	EmbeddingDimensions int
}

type AIConfig struct {
	LLMProvider          string // "ollama" or "anthropic"
	LLMModel             string
	OllamaBaseURL        string
	OllamaEmbeddingModel string
}

type APIKeys struct {
	Anthropic string
}

type AuthConfig struct {
	JwtSecret string // empty leaves the interview routes open
}

type OtelConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			EventTopic:         getEnv("EVENT_TOPIC", "interview_events"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Interview: InterviewConfig{
			MaxRounds:              getEnvAsInt("INTERVIEW_MAX_ROUNDS", 5),
			InitialDifficulty:      getEnv("INTERVIEW_INITIAL_DIFFICULTY", "easy"),
			OpeningQuestion:        getEnv("INTERVIEW_OPENING_QUESTION", ""),
			OracleTimeout:          getEnvAsDuration("ORACLE_TIMEOUT", 30*time.Second),
			SessionTTL:             getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			SessionCleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
			DecisionOracle:         getEnv("DECISION_ORACLE", "rules"),
		},
		Memory: MemoryConfig{
			Scope:               getEnv("MEMORY_SCOPE", "candidate"),
			QueryTopK:           getEnvAsInt("MEMORY_QUERY_TOP_K", 3),
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "hash"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 384),
		},
		Ai: AIConfig{
			LLMProvider:          getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:             getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "all-minilm"),
		},
		Keys: APIKeys{
			Anthropic: getEnv("ANTHROPIC_API_KEY", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Otel: OtelConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("45s") or plain seconds ("45").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.ParseFloat(strValue, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	return fallback
}
