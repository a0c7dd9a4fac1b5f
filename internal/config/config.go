// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver      string `yaml:"driver"` // memory|sqlite|postgres
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// RedisConfig configures the Redis connection used for mute flags and
// the alerter key namespace.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Namespace string `yaml:"namespace"`
}

// BlobConfig selects and configures the snapshot archive backend.
type BlobConfig struct {
	Driver     string `yaml:"driver"` // fs|s3|memory
	FSRoot     string `yaml:"fs_root"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	S3Endpoint string `yaml:"s3_endpoint"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

// ObservabilityConfig selects the metrics exporter and optional trace
// output. The expvar exporter serves installations without a Prometheus
// scraper; trace_file enables JSON-line span output when set.
type ObservabilityConfig struct {
	MetricsExporter string `yaml:"metrics_exporter"` // prometheus|expvar
	TraceFile       string `yaml:"trace_file"`
}

// Config is the full application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Redis         RedisConfig         `yaml:"redis"`
	Blob          BlobConfig          `yaml:"blob"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Default returns the configuration used when no file or overrides are set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "panicconf.db",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			Namespace: "panicconf",
		},
		Blob: BlobConfig{
			Driver: "fs",
			FSRoot: "./archives",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			MetricsExporter: "prometheus",
		},
	}
}

// Load reads configuration from path (optional, "" skips the file),
// applies PANICCONF_* environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envString("PANICCONF_HTTP_ADDR", &c.Server.Addr)
	envDuration("PANICCONF_HTTP_READ_TIMEOUT", &c.Server.ReadTimeout)
	envDuration("PANICCONF_HTTP_WRITE_TIMEOUT", &c.Server.WriteTimeout)

	envString("PANICCONF_STORAGE_DRIVER", &c.Storage.Driver)
	envString("PANICCONF_SQLITE_PATH", &c.Storage.SQLitePath)
	envString("PANICCONF_POSTGRES_DSN", &c.Storage.PostgresDSN)

	envString("PANICCONF_REDIS_ADDR", &c.Redis.Addr)
	envString("PANICCONF_REDIS_PASSWORD", &c.Redis.Password)
	envInt("PANICCONF_REDIS_DB", &c.Redis.DB)
	envString("PANICCONF_REDIS_NAMESPACE", &c.Redis.Namespace)

	envString("PANICCONF_BLOB_DRIVER", &c.Blob.Driver)
	envString("PANICCONF_BLOB_FS_ROOT", &c.Blob.FSRoot)
	envString("PANICCONF_BLOB_S3_BUCKET", &c.Blob.S3Bucket)
	envString("PANICCONF_BLOB_S3_REGION", &c.Blob.S3Region)
	envString("PANICCONF_BLOB_S3_ENDPOINT", &c.Blob.S3Endpoint)

	envString("PANICCONF_LOG_LEVEL", &c.Logging.Level)
	envString("PANICCONF_LOG_FORMAT", &c.Logging.Format)

	envString("PANICCONF_METRICS_EXPORTER", &c.Observability.MetricsExporter)
	envString("PANICCONF_TRACE_FILE", &c.Observability.TraceFile)
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage driver postgres requires postgres_dsn")
		}
	default:
		return fmt.Errorf("unknown storage driver %s", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case "fs", "memory":
	case "s3":
		if c.Blob.S3Bucket == "" {
			return fmt.Errorf("blob driver s3 requires s3_bucket")
		}
	default:
		return fmt.Errorf("unknown blob driver %s", c.Blob.Driver)
	}
	switch c.Observability.MetricsExporter {
	case "prometheus", "expvar":
	default:
		return fmt.Errorf("unknown metrics exporter %s", c.Observability.MetricsExporter)
	}
	return nil
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
