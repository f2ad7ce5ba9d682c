package common

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/joseph-ayodele/foc-extractor/constants"
)

// EnvPrefix is prepended to every environment key, e.g. FOCX_DATABASE_DSN.
const EnvPrefix = "FOCX"

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
	Rules    RulesConfig    `mapstructure:"rules"`
}

// DatabaseConfig holds run-history store configuration.
// A DSN starting with postgres:// selects Postgres, anything else is handed to SQLite.
type DatabaseConfig struct {
	DSN              string        `mapstructure:"dsn"`
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	MaxConnLifetime  time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `mapstructure:"max_conn_idle_time"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// ServerConfig holds daemon configuration
type ServerConfig struct {
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	InboxDir        string        `mapstructure:"inbox_dir"`
	WatchDebounce   time.Duration `mapstructure:"watch_debounce"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Language         string `mapstructure:"language"`
	DPI              int    `mapstructure:"dpi"`
	MaxPages         int    `mapstructure:"max_pages"`
	HeicConverter    string `mapstructure:"heic_converter"`
	TessdataDir      string `mapstructure:"tessdata_dir"`
	ArtifactCacheDir string `mapstructure:"artifact_cache_dir"`
}

// BatchConfig holds batch execution and export settings.
type BatchConfig struct {
	Workers         int           `mapstructure:"workers"`
	QueueSize       int           `mapstructure:"queue_size"`
	DocumentTimeout time.Duration `mapstructure:"document_timeout"`
	Columns         []string      `mapstructure:"columns"`
	IncludeAll      bool          `mapstructure:"include_all"`
}

// CacheConfig holds the acquired-text cache settings. An empty RedisAddr disables caching.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// StorageConfig holds report upload settings. An empty Bucket disables uploads.
type StorageConfig struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RulesConfig points at an optional YAML file overriding the built-in extraction rules.
type RulesConfig struct {
	Path string `mapstructure:"path"`
}

// LoadConfig reads .env (if present) and then environment variables with the FOCX_ prefix.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError("CONFIG_ERROR", "load .env", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "decode config", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.dsn", "file:foc-runs.db?_pragma=busy_timeout(5000)")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("database.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("database.dial_timeout", 3*time.Second)
	v.SetDefault("database.statement_timeout", time.Duration(0))

	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.inbox_dir", "./inbox")
	v.SetDefault("server.watch_debounce", 750*time.Millisecond)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("ocr.language", "kor+eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.heic_converter", "magick")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.artifact_cache_dir", "./tmp")

	cols := make([]string, len(constants.DefaultColumns))
	for i, c := range constants.DefaultColumns {
		cols[i] = string(c)
	}
	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.queue_size", 256)
	v.SetDefault("batch.document_timeout", 3*time.Minute)
	v.SetDefault("batch.columns", cols)
	v.SetDefault("batch.include_all", false)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 7*24*time.Hour)

	v.SetDefault("storage.region", "ap-northeast-2")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "reports/")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("rules.path", "")
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "FOCX_DATABASE_DSN is required", ErrInvalidInput)
	}
	if c.Batch.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "FOCX_BATCH_WORKERS must be positive", ErrInvalidInput)
	}
	for _, col := range c.Batch.Columns {
		if _, ok := constants.CanonicalizeColumn(col); !ok {
			return NewAppError("CONFIG_ERROR", "unknown export column "+col, ErrInvalidInput)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return NewAppError("CONFIG_ERROR", "FOCX_LOG_FORMAT must be json or text", ErrInvalidInput)
	}
	if c.Storage.Bucket != "" && c.Storage.Region == "" {
		return NewAppError("CONFIG_ERROR", "FOCX_STORAGE_REGION is required when a bucket is set", ErrInvalidInput)
	}
	return nil
}

// ExportColumns resolves the configured column names in order.
func (c *Config) ExportColumns() []constants.Column {
	out := make([]constants.Column, 0, len(c.Batch.Columns))
	for _, name := range c.Batch.Columns {
		if col, ok := constants.CanonicalizeColumn(name); ok {
			out = append(out, col)
		}
	}
	if len(out) == 0 {
		return append(out, constants.DefaultColumns...)
	}
	return out
}
