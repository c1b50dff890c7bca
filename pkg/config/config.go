package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is empty because every field spells out its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App            AppConfig
	DB             DBConfig
	Blob           BlobConfig
	Thumbnail      ThumbnailConfig
	Analysis       AnalysisConfig
	JWT            JWTConfig
	Auth           AuthConfig
	Password       PasswordConfig
	Redis          RedisConfig
	LoginRateLimit LoginRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DB.Path) == "" {
		return fmt.Errorf("database path is required")
	}
	if strings.TrimSpace(c.Blob.Dir) == "" {
		return fmt.Errorf("blob directory is required")
	}
	if c.Thumbnail.SeekSeconds < 0 {
		return fmt.Errorf("thumbnail seek offset cannot be negative")
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"CLIPVAULT_APP_ENV" default:"development"`
	Port         string `envconfig:"CLIPVAULT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CLIPVAULT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLIPVAULT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Path        string        `envconfig:"CLIPVAULT_DB_PATH" default:"data/clipvault.db"`
	BusyTimeout time.Duration `envconfig:"CLIPVAULT_DB_BUSY_TIMEOUT" default:"5s"`
}

type BlobConfig struct {
	Dir string `envconfig:"CLIPVAULT_BLOB_DIR" default:"data/blobs"`
}

type ThumbnailConfig struct {
	FFmpegPath  string        `envconfig:"CLIPVAULT_FFMPEG_PATH" default:"ffmpeg"`
	SeekSeconds float64       `envconfig:"CLIPVAULT_THUMBNAIL_SEEK_SECONDS" default:"1"`
	Timeout     time.Duration `envconfig:"CLIPVAULT_THUMBNAIL_TIMEOUT" default:"30s"`
	JPEGQuality int           `envconfig:"CLIPVAULT_THUMBNAIL_JPEG_QUALITY" default:"4"`
}

type AnalysisConfig struct {
	BaseURL string        `envconfig:"CLIPVAULT_ANALYSIS_BASE_URL" default:"https://api.openai.com/v1"`
	APIKey  string        `envconfig:"CLIPVAULT_ANALYSIS_API_KEY"`
	Model   string        `envconfig:"CLIPVAULT_ANALYSIS_MODEL" default:"gpt-4o-mini"`
	Timeout time.Duration `envconfig:"CLIPVAULT_ANALYSIS_TIMEOUT" default:"30s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CLIPVAULT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CLIPVAULT_JWT_ISSUER" default:"clipvault"`
	ExpirationMinutes int    `envconfig:"CLIPVAULT_JWT_EXPIRATION_MINUTES" default:"720"`
}

type AuthConfig struct {
	// Argon2id hash of the shared admin credential, produced by cmd/hashpw.
	AdminPasswordHash string `envconfig:"CLIPVAULT_ADMIN_PASSWORD_HASH" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CLIPVAULT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CLIPVAULT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CLIPVAULT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CLIPVAULT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CLIPVAULT_ARGON_KEY_LEN" default:"32"`
}

type RedisConfig struct {
	// Empty URL disables Redis-backed login rate limiting.
	URL          string        `envconfig:"CLIPVAULT_REDIS_URL"`
	DialTimeout  time.Duration `envconfig:"CLIPVAULT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLIPVAULT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLIPVAULT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type LoginRateLimitConfig struct {
	Window  time.Duration `envconfig:"CLIPVAULT_LOGIN_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"CLIPVAULT_LOGIN_RATE_LIMIT_IP_LIMIT" default:"10"`
}
