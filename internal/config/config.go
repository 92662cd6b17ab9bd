package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	DatabaseDSN  string  `env:"DATABASE_URI"`
	AuthSecret   string  `env:"AUTH_SECRET"`
	RedisAddr    string  `env:"REDIS_ADDR"`
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS"`

	// Image hosting
	ImageDir     string `env:"IMAGE_DIR"`
	ImageBaseURL string `env:"IMAGE_BASE_URL"`
	ImageMaxMB   int    `env:"IMAGE_MAX_MB"`
	S3Bucket     string `env:"S3_BUCKET"`
	S3Region     string `env:"S3_REGION"`
	S3Endpoint   string `env:"S3_ENDPOINT"`
	S3AccessKey  string `env:"S3_ACCESS_KEY"`
	S3SecretKey  string `env:"S3_SECRET_KEY"`
	S3PublicURL  string `env:"S3_PUBLIC_URL"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL     string        `env:"-"`
	ClientDBPath  string        `env:"CLIENT_DB_PATH"`
	TokenFile     string        `env:"TOKEN_FILE"`
	RemoteTimeout time.Duration `env:"REMOTE_TIMEOUT"`
	Version       bool          `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "адрес Redis для live-уведомлений (host:port)")
	flag.Float64Var(&cfg.RateLimitRPS, "rate-limit", cfg.RateLimitRPS, "лимит запросов в секунду на пользователя")
	flag.StringVar(&cfg.ImageDir, "image-dir", cfg.ImageDir, "каталог для загруженных изображений")
	flag.StringVar(&cfg.ImageBaseURL, "image-base-url", cfg.ImageBaseURL, "внешний URL, по которому отдаются изображения")
	flag.IntVar(&cfg.ImageMaxMB, "image-max-mb", cfg.ImageMaxMB, "максимальный размер изображения, МБ")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "S3 bucket для изображений (пусто — локальный каталог)")
	flag.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "S3 endpoint (MinIO)")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the ShoeKeeper server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.ClientDBPath, "client-db", cfg.ClientDBPath, "directory for per-user snapshot caches")
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	flag.DurationVar(&cfg.RemoteTimeout, "timeout", cfg.RemoteTimeout, "timeout of a single remote call (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "shoekeeper.db"
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 20
	}
	if cfg.ImageMaxMB <= 0 {
		cfg.ImageMaxMB = 10
	}
	if cfg.ImageDir == "" {
		cfg.ImageDir = "images"
	}
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = 10 * time.Second
	}
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = cfg.ServerURL
	}

	// Fill client defaults if empty
	if cfg.ClientDBPath == "" || cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir, _ = os.UserHomeDir()
		}
		dir = filepath.Join(dir, "ShoeKeeper")
		if cfg.ClientDBPath == "" {
			cfg.ClientDBPath = filepath.Join(dir, "users")
		}
		if cfg.TokenFile == "" {
			cfg.TokenFile = filepath.Join(dir, "auth_token")
		}
	}

	return cfg
}

// MaxImageBytes returns the upload limit in bytes.
func (c *Config) MaxImageBytes() int64 {
	return int64(c.ImageMaxMB) << 20
}
