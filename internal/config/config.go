package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Store    StoreConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	LLM      LLMConfig
	Auth     AuthConfig
	Quiz     QuizConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type StoreConfig struct {
	// Backend is "mongo" or "memory".
	Backend string
}

type MongoDBConfig struct {
	URI      string
	Database string
	PoolSize uint64
	Timeout  time.Duration
}

// RedisConfig is optional; an empty Address disables the cache.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	CacheTTL time.Duration
}

// RabbitMQConfig is optional; an empty URI disables event publishing.
type RabbitMQConfig struct {
	URI      string
	Exchange string
}

type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type AuthConfig struct {
	JWTSecret      string
	AllowUserIDHdr bool
	AdminUserIDs   []string
}

type QuizConfig struct {
	RetakeCooldown     time.Duration
	ArchiveAfter       time.Duration
	AbandonedAfter     time.Duration
	QualityThreshold   float64
	GenerationDelay    time.Duration
	InitPoolsOnStartup bool
	// StrictSelection fails quiz generation instead of backfilling when the
	// bank cannot meet the requested distribution.
	StrictSelection bool
}

// Load reads .env when present and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	return &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:            getEnv("PORT", "6666"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", "mongo")),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "apcsp_quiz"),
			PoolSize: getEnvAsUint64("MONGODB_POOL_SIZE", 100),
			Timeout:  getEnvAsDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "quiz.events"),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			AllowUserIDHdr: getEnvAsBool("ALLOW_USER_ID_HEADER", true),
			AdminUserIDs:   getEnvAsList("ADMIN_USER_IDS", nil),
		},
		Quiz: QuizConfig{
			RetakeCooldown:     getEnvAsDuration("RETAKE_COOLDOWN", 24*time.Hour),
			ArchiveAfter:       getEnvAsDuration("ARCHIVE_AFTER", 90*24*time.Hour),
			AbandonedAfter:     getEnvAsDuration("ABANDONED_AFTER", 24*time.Hour),
			QualityThreshold:   getEnvAsFloat("QUALITY_THRESHOLD", 0.7),
			GenerationDelay:    getEnvAsDuration("GENERATION_DELAY", 2*time.Second),
			InitPoolsOnStartup: getEnvAsBool("INIT_POOLS_ON_STARTUP", false),
			StrictSelection:    getEnvAsBool("STRICT_SELECTION", false),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("error retrieve int env var: %s", err)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value, exists := os.LookupEnv(key); exists {
		uintVal, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			log.Printf("error retrieve uint64 env var: %s", err)
			return defaultValue
		}
		return uintVal
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		duration, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("error retrieve duration env var: %s", err)
			return defaultValue
		}
		return duration
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("error retrieve bool env var: %s", err)
			return defaultValue
		}
		return boolVal
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			log.Printf("error retrieve float env var: %s", err)
			return defaultValue
		}
		return floatVal
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
