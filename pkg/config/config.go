package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Cache backend identifiers.
const (
	CacheBackendFilesystem = "filesystem"
	CacheBackendRedis      = "redis"
	CacheBackendSQLite     = "sqlite"
)

type Config struct {
	Env string

	Log    LogConfig
	Cache  CacheConfig
	Remote RemoteConfig
	Sync   SyncConfig
	Guard  GuardConfig
	Export ExportConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig selects and tunes the persistent snapshot backend.
type CacheConfig struct {
	Backend    string
	Dir        string
	SQLitePath string
	KeyPrefix  string
	Redis      RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RemoteConfig points the sync engine at the materials API.
type RemoteConfig struct {
	BaseURL       string
	RecordSinkURL string
	Timeout       time.Duration
}

// SyncConfig tunes the pending-write reconciliation worker.
type SyncConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// GuardConfig configures the claims-based permission guard.
type GuardConfig struct {
	JWTSecret string
}

// ExportConfig controls roster export output.
type ExportConfig struct {
	Dir string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Backend:    v.GetString("CACHE_BACKEND"),
		Dir:        v.GetString("CACHE_DIR"),
		SQLitePath: v.GetString("CACHE_SQLITE_PATH"),
		KeyPrefix:  v.GetString("CACHE_KEY_PREFIX"),
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
	}

	cfg.Remote = RemoteConfig{
		BaseURL:       v.GetString("MATERIALS_API_URL"),
		RecordSinkURL: v.GetString("RECORD_SINK_URL"),
		Timeout:       parseDuration(v.GetString("REMOTE_TIMEOUT"), 5*time.Second),
	}

	cfg.Sync = SyncConfig{
		Workers:    v.GetInt("SYNC_WORKERS"),
		MaxRetries: v.GetInt("SYNC_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("SYNC_RETRY_DELAY"), time.Second),
	}

	cfg.Guard = GuardConfig{JWTSecret: v.GetString("JWT_SECRET")}

	cfg.Export = ExportConfig{Dir: v.GetString("EXPORT_DIR")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CACHE_BACKEND", CacheBackendFilesystem)
	v.SetDefault("CACHE_DIR", "./data/cache")
	v.SetDefault("CACHE_SQLITE_PATH", "./data/cache.db")
	v.SetDefault("CACHE_KEY_PREFIX", "mathschool")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("MATERIALS_API_URL", "http://localhost:3001/api")
	v.SetDefault("REMOTE_TIMEOUT", "5s")
	v.SetDefault("SYNC_WORKERS", 1)
	v.SetDefault("SYNC_MAX_RETRIES", 3)
	v.SetDefault("SYNC_RETRY_DELAY", "1s")
	v.SetDefault("EXPORT_DIR", "./data/exports")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
