package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Clicks    ClickConfig
}

type AppConfig struct {
	Port    string
	Env     string
	BaseURL string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN собирает строку подключения к postgres
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	CacheTTL time.Duration
}

// Enabled - кэш включается только если задан хост
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type AuthConfig struct {
	JWTSecret     string
	APIKeys       map[string]int64 // API key -> user id
	DefaultUserID int64
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

type ClickConfig struct {
	Workers int
	Buffer  int
}

// Load читает конфигурацию из env-файла (если он есть) и переменных окружения.
// Переменные окружения имеют приоритет над файлом.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "linkflow")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("CACHE_TTL", "24h")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("API_KEYS", "")
	v.SetDefault("DEFAULT_USER_ID", 1)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("CLICK_WORKERS", 0)
	v.SetDefault("CLICK_BUFFER", 1000)

	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.Env = v.GetString("APP_ENV")
	cfg.App.BaseURL = strings.TrimSuffix(v.GetString("BASE_URL"), "/")
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.DB.SSLMode = v.GetString("DB_SSLMODE")
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.CacheTTL = v.GetDuration("CACHE_TTL")

	apiKeys, err := parseAPIKeys(v.GetString("API_KEYS"))
	if err != nil {
		return nil, err
	}
	cfg.Auth.APIKeys = apiKeys
	cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	cfg.Auth.DefaultUserID = v.GetInt64("DEFAULT_USER_ID")

	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")

	cfg.Clicks.Workers = v.GetInt("CLICK_WORKERS")
	cfg.Clicks.Buffer = v.GetInt("CLICK_BUFFER")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.App.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid APP_PORT %q", c.App.Port)
	}
	if !strings.HasPrefix(c.App.BaseURL, "http://") && !strings.HasPrefix(c.App.BaseURL, "https://") {
		return fmt.Errorf("BASE_URL must be an http(s) URL, got %q", c.App.BaseURL)
	}
	if c.Auth.DefaultUserID < 0 {
		return errors.New("DEFAULT_USER_ID must not be negative")
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return errors.New("RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimit.BurstSize <= 0 {
		return errors.New("RATE_LIMIT_BURST must be positive")
	}
	if c.Clicks.Workers < 0 {
		return errors.New("CLICK_WORKERS must not be negative")
	}
	if c.Clicks.Workers > 0 && c.Clicks.Buffer <= 0 {
		return errors.New("CLICK_BUFFER must be positive when CLICK_WORKERS is set")
	}
	if c.Redis.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}
	return nil
}

// parseAPIKeys разбирает ключи в формате "key1:1,key2:42" (ключ -> id пользователя)
func parseAPIKeys(raw string) (map[string]int64, error) {
	keys := make(map[string]int64)
	if raw == "" {
		return keys, nil
	}

	pairs := strings.Split(raw, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			continue
		}
		userID, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil || userID <= 0 {
			return nil, fmt.Errorf("invalid user id in API_KEYS entry %q", pair)
		}
		keys[strings.TrimSpace(parts[0])] = userID
	}

	return keys, nil
}
