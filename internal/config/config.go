package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"tutor-server/pkg/utils"

	"github.com/kelseyhightower/envconfig"
)

const (
	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"

	ExerciseSourceFile     = "file"
	ExerciseSourcePostgres = "postgres"
)

// Config содержит конфигурацию tutor-server
type Config struct {
	// Настройки сервера
	Port        string `envconfig:"TUTOR_SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секрет, без envconfig тега
	DBPassword string `ignored:"true"`

	// Redis: пустой адрес - блокировки внутри процесса
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	RedisDB   int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL   time.Duration `envconfig:"LOCK_TTL" default:"60s"`

	// RabbitMQ: пустой URL - задачи заголовков выполняются внутри процесса
	RabbitMQURL    string `envconfig:"RABBITMQ_URL"`
	TitleTaskQueue string `envconfig:"TITLE_TASK_QUEUE" default:"room_title_tasks"`

	// Генеративный помощник
	AIClientType     string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL        string        `envconfig:"AI_BASE_URL"`
	AIModel          string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"20s"`
	AIMaxAttempts    int           `envconfig:"AI_MAX_ATTEMPTS" default:"3"`
	AIBaseRetryDelay time.Duration `envconfig:"AI_BASE_RETRY_DELAY" default:"1s"`
	AISystemPrompt   string        `envconfig:"AI_SYSTEM_PROMPT"`
	// Секрет, необязательный для ollama
	AIAPIKey string `ignored:"true"`

	// Каталог упражнений
	ExerciseSource          string        `envconfig:"EXERCISE_SOURCE" default:"file"`
	ExercisesFile           string        `envconfig:"EXERCISES_FILE" default:"data/exercises.json"`
	ExerciseRefreshInterval time.Duration `envconfig:"EXERCISE_REFRESH_INTERVAL" default:"1m"`

	// Диалог
	RecentWindow    int           `envconfig:"RECENT_WINDOW" default:"20"`
	EndOnExhaustion bool          `envconfig:"END_ON_EXHAUSTION" default:"false"`
	EngineCacheSize int           `envconfig:"ENGINE_CACHE_SIZE" default:"1024"`
	EngineCacheTTL  time.Duration `envconfig:"ENGINE_CACHE_TTL" default:"30m"`
	RNGSeed         int64         `envconfig:"RNG_SEED" default:"0"`

	// Иллюстрации к упражнениям
	ArtifactDir           string `envconfig:"ARTIFACT_DIR" default:"media/diagrams"`
	ArtifactPublicBaseURL string `envconfig:"ARTIFACT_PUBLIC_BASE_URL" default:"/media/diagrams"`

	// Секрет для проверки JWT пользователя
	JWTSecret string `ignored:"true"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Validate проверяет значения, которые envconfig проверить не может.
func (c *Config) Validate() error {
	switch c.AIClientType {
	case AIClientOpenAI, AIClientOllama:
	default:
		return fmt.Errorf("unsupported AI_CLIENT_TYPE %q", c.AIClientType)
	}
	switch c.ExerciseSource {
	case ExerciseSourceFile, ExerciseSourcePostgres:
	default:
		return fmt.Errorf("unsupported EXERCISE_SOURCE %q", c.ExerciseSource)
	}
	if c.AIMaxAttempts < 1 {
		return fmt.Errorf("AI_MAX_ATTEMPTS must be at least 1, got %d", c.AIMaxAttempts)
	}
	if c.EngineCacheSize < 1 {
		return fmt.Errorf("ENGINE_CACHE_SIZE must be positive, got %d", c.EngineCacheSize)
	}
	if c.AIClientType == AIClientOpenAI && c.AIAPIKey == "" && c.AIBaseURL == "" {
		return fmt.Errorf("secret ai_api_key is required for AI_CLIENT_TYPE=%s", AIClientOpenAI)
	}
	return nil
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации tutor-server: %w", err)
	}
	cfg.AIClientType = strings.ToLower(strings.TrimSpace(cfg.AIClientType))
	cfg.ExerciseSource = strings.ToLower(strings.TrimSpace(cfg.ExerciseSource))

	var loadErr error
	cfg.DBPassword, loadErr = utils.ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.JWTSecret, loadErr = utils.ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.AIAPIKey, loadErr = utils.ReadOptionalSecret("ai_api_key")
	if loadErr != nil {
		return nil, loadErr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Конфигурация tutor-server загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  Redis: %s", orNone(cfg.RedisAddr))
	log.Printf("  RabbitMQ URL: %s", orNone(cfg.RabbitMQURL))
	log.Printf("  AI: %s %s", cfg.AIClientType, cfg.AIModel)
	log.Printf("  Exercise source: %s", cfg.ExerciseSource)
	log.Println("  JWT Secret: [ЗАГРУЖЕН]")

	return &cfg, nil
}

func orNone(s string) string {
	if s == "" {
		return "[не задан]"
	}
	return s
}
