package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/gemini-banner-kit/pkg/domain"
)

// ストアの種類
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Config は環境変数から読み込む設定です。
type Config struct {
	// Gemini
	GeminiAPIKey    string
	GeminiProAPIKey string
	DefaultModel    domain.Model

	// Store
	Store         string
	DataDir       string
	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RedisDB       int

	// Logging
	LogLevel  string
	LogFormat string

	// Intake
	ImageCompression        bool
	ImageCompressionQuality int
	// ImageMaxEdge が正なら長辺がこれを超える添付画像を縮小します。
	ImageMaxEdge      int
	ImageFetchTimeout time.Duration

	// GenerationTimeout が 0 ならタイムアウトしません。
	GenerationTimeout time.Duration
}

// Load は .env（あれば）と環境変数から設定を読み込み、検証します。
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug(".env file not found, using environment variables")
	}

	cfg := &Config{
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiProAPIKey: getEnv("GEMINI_PRO_API_KEY", ""),
		DefaultModel:    domain.Model(getEnv("BANNER_MODEL", string(domain.ModelFlash))),

		Store:         strings.ToLower(getEnv("BANNER_STORE", StoreFile)),
		DataDir:       getEnv("BANNER_DATA_DIR", defaultDataDir()),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ImageCompressionQuality: 85,
		ImageFetchTimeout:       30 * time.Second,
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.ImageCompression, err = getEnvBool("IMAGE_COMPRESSION", false); err != nil {
		return nil, err
	}
	if cfg.ImageCompressionQuality, err = getEnvInt("IMAGE_COMPRESSION_QUALITY", cfg.ImageCompressionQuality); err != nil {
		return nil, err
	}
	if cfg.ImageMaxEdge, err = getEnvInt("IMAGE_MAX_EDGE", 0); err != nil {
		return nil, err
	}
	if v := os.Getenv("IMAGE_FETCH_TIMEOUT"); v != "" {
		if cfg.ImageFetchTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid IMAGE_FETCH_TIMEOUT: %w", err)
		}
	}
	if v := os.Getenv("GENERATION_TIMEOUT"); v != "" {
		if cfg.GenerationTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid GENERATION_TIMEOUT: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	m, err := domain.ParseModel(string(c.DefaultModel))
	if err != nil {
		return fmt.Errorf("invalid BANNER_MODEL: %w", err)
	}
	c.DefaultModel = m

	switch c.Store {
	case StoreFile:
		if c.DataDir == "" {
			return fmt.Errorf("BANNER_DATA_DIR is required for the file store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("invalid BANNER_STORE %q: must be %q or %q", c.Store, StoreFile, StoreRedis)
	}
	if c.ImageCompressionQuality < 1 || c.ImageCompressionQuality > 100 {
		return fmt.Errorf("IMAGE_COMPRESSION_QUALITY must be between 1 and 100")
	}
	if c.ImageMaxEdge < 0 {
		return fmt.Errorf("IMAGE_MAX_EDGE must not be negative")
	}
	if c.ImageFetchTimeout <= 0 {
		return fmt.Errorf("IMAGE_FETCH_TIMEOUT must be positive")
	}
	if c.GenerationTimeout < 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must not be negative")
	}
	return nil
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".bannerkit"
	}
	return filepath.Join(dir, "bannerkit")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
