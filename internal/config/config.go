package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the conversion service.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Worker    WorkerConfig
	Extractor ExtractorConfig
}

type ServerConfig struct {
	Port         int           `mapstructure:"PORT"`
	ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
	RateLimit    int           `mapstructure:"RATE_LIMIT"`
	GinMode      string        `mapstructure:"GIN_MODE"`
}

type StoreConfig struct {
	// Backend is one of "redis", "sqlite", "memory".
	Backend    string        `mapstructure:"STORE_BACKEND"`
	RedisURL   string        `mapstructure:"REDIS_URL"`
	SQLitePath string        `mapstructure:"SQLITE_PATH"`
	JobTTL     time.Duration `mapstructure:"JOB_TTL"`
}

type WorkerConfig struct {
	PoolSize      int    `mapstructure:"POOL_SIZE"`
	QueueCapacity int    `mapstructure:"QUEUE_CAPACITY"`
	OutputDir     string `mapstructure:"OUTPUT_DIR"`
}

type ExtractorConfig struct {
	YtdlpPath          string        `mapstructure:"YTDLP_PATH"`
	ProbeTimeout       time.Duration `mapstructure:"PROBE_TIMEOUT"`
	DownloadTimeout    time.Duration `mapstructure:"DOWNLOAD_TIMEOUT"`
	MaxDurationSeconds int64         `mapstructure:"MAX_DURATION_SECONDS"`
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("READ_TIMEOUT", "10s")
	viper.SetDefault("WRITE_TIMEOUT", "30s")
	viper.SetDefault("RATE_LIMIT", 60)
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("STORE_BACKEND", "redis")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("SQLITE_PATH", "audiopress.db")
	viper.SetDefault("JOB_TTL", "24h")
	viper.SetDefault("POOL_SIZE", 4)
	viper.SetDefault("QUEUE_CAPACITY", 64)
	viper.SetDefault("OUTPUT_DIR", "/tmp/audiopress")
	viper.SetDefault("YTDLP_PATH", "yt-dlp")
	viper.SetDefault("PROBE_TIMEOUT", "30s")
	viper.SetDefault("DOWNLOAD_TIMEOUT", "15m")
	viper.SetDefault("MAX_DURATION_SECONDS", 7200) // 2 hours

	// Attempt to read .env file (non-fatal if missing)
	_ = viper.ReadInConfig()

	cfg := &Config{}
	cfg.Server.Port = viper.GetInt("PORT")
	cfg.Server.ReadTimeout = viper.GetDuration("READ_TIMEOUT")
	cfg.Server.WriteTimeout = viper.GetDuration("WRITE_TIMEOUT")
	cfg.Server.RateLimit = viper.GetInt("RATE_LIMIT")
	cfg.Server.GinMode = viper.GetString("GIN_MODE")
	cfg.Store.Backend = viper.GetString("STORE_BACKEND")
	cfg.Store.RedisURL = viper.GetString("REDIS_URL")
	cfg.Store.SQLitePath = viper.GetString("SQLITE_PATH")
	cfg.Store.JobTTL = viper.GetDuration("JOB_TTL")
	cfg.Worker.PoolSize = viper.GetInt("POOL_SIZE")
	cfg.Worker.QueueCapacity = viper.GetInt("QUEUE_CAPACITY")
	cfg.Worker.OutputDir = viper.GetString("OUTPUT_DIR")
	cfg.Extractor.YtdlpPath = viper.GetString("YTDLP_PATH")
	cfg.Extractor.ProbeTimeout = viper.GetDuration("PROBE_TIMEOUT")
	cfg.Extractor.DownloadTimeout = viper.GetDuration("DOWNLOAD_TIMEOUT")
	cfg.Extractor.MaxDurationSeconds = viper.GetInt64("MAX_DURATION_SECONDS")

	return cfg, nil
}
