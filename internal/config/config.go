package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DBDriver     string `env:"DB_DRIVER" envDefault:"mysql"`
	DBHost       string `env:"DB_HOST" envDefault:"localhost"`
	DBPort       string `env:"DB_PORT" envDefault:"3306"`
	DBUser       string `env:"DB_USER" envDefault:"taskuser"`
	DBPassword   string `env:"DB_PASSWORD" envDefault:"taskpassword"`
	DBName       string `env:"DB_NAME" envDefault:"task_management"`
	DBSQLitePath string `env:"DB_SQLITE_PATH" envDefault:"task_management.db"`

	CacheDriver   string `env:"CACHE_DRIVER" envDefault:"redis"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"default-secret-key-change-me"`

	GinMode string `env:"GIN_MODE" envDefault:"debug"`
	Port    string `env:"PORT" envDefault:"8080"`

	JWTSecret             string `env:"JWT_SECRET" envDefault:"default-jwt-secret-change-me"`
	JWTIssuer             string `env:"JWT_ISSUER" envDefault:"group-task-api"`
	JWTAudience           string `env:"JWT_AUDIENCE" envDefault:"group-task-clients"`
	JWTAccessTokenMinutes int    `env:"JWT_ACCESS_TOKEN_MINUTES" envDefault:"15"`
	JWTRefreshTokenDays   int    `env:"JWT_REFRESH_TOKEN_DAYS" envDefault:"7"`
	BcryptCost            int    `env:"BCRYPT_COST" envDefault:"12"`

	OpenAIAPIKey          string `env:"OPENAI_API_KEY"`
	OpenAIModel           string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	CleanupSchedule       string `env:"CLEANUP_SCHEDULE" envDefault:"@hourly"`
	CascadeDeleteComments bool   `env:"CASCADE_DELETE_COMMENTS" envDefault:"false"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	StorageProvider       string   `env:"STORAGE_PROVIDER" envDefault:"local"`
	StorageLocalPath      string   `env:"STORAGE_LOCAL_PATH" envDefault:"uploads"`
	StorageBaseURL        string   `env:"STORAGE_BASE_URL"`
	AzureConnectionString string   `env:"AZURE_STORAGE_CONNECTION_STRING"`
	AzureContainer        string   `env:"AZURE_STORAGE_CONTAINER" envDefault:"attachments"`
	StorageMaxFileSizeMB  int64    `env:"STORAGE_MAX_FILE_SIZE_MB" envDefault:"10"`
	StorageAllowedExts    []string `env:"STORAGE_ALLOWED_EXTENSIONS" envSeparator:"," envDefault:".jpg,.jpeg,.png,.gif,.pdf,.doc,.docx,.xls,.xlsx,.txt,.zip"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWTAccessTokenMinutes) * time.Minute
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.JWTRefreshTokenDays) * 24 * time.Hour
}

func (c *Config) MaxUploadBytes() int64 {
	return c.StorageMaxFileSizeMB * 1024 * 1024
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
