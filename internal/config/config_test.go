package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("server addr = %s", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Fatalf("storage driver = %s", cfg.Storage.Driver)
	}
	if cfg.Blob.Driver != "fs" {
		t.Fatalf("blob driver = %s", cfg.Blob.Driver)
	}
	if cfg.Observability.MetricsExporter != "prometheus" {
		t.Fatalf("metrics exporter = %s", cfg.Observability.MetricsExporter)
	}
}

func TestFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panicconf.yaml")
	body := `
server:
  addr: ":9090"
  read_timeout: 30s
storage:
  driver: memory
redis:
  addr: "redis:6379"
  namespace: staging
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("server addr = %s", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Fatalf("read timeout = %s", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("storage driver = %s", cfg.Storage.Driver)
	}
	if cfg.Redis.Namespace != "staging" {
		t.Fatalf("redis namespace = %s", cfg.Redis.Namespace)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	// File fields not set keep defaults.
	if cfg.Server.WriteTimeout != 15*time.Second {
		t.Fatalf("write timeout = %s", cfg.Server.WriteTimeout)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panicconf.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  driver: sqlite\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PANICCONF_STORAGE_DRIVER", "postgres")
	t.Setenv("PANICCONF_POSTGRES_DSN", "postgres://db/panicconf")
	t.Setenv("PANICCONF_REDIS_DB", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Fatalf("storage driver = %s", cfg.Storage.Driver)
	}
	if cfg.Storage.PostgresDSN != "postgres://db/panicconf" {
		t.Fatalf("postgres dsn = %s", cfg.Storage.PostgresDSN)
	}
	if cfg.Redis.DB != 3 {
		t.Fatalf("redis db = %d", cfg.Redis.DB)
	}
}

func TestValidationRejectsBadDrivers(t *testing.T) {
	t.Setenv("PANICCONF_STORAGE_DRIVER", "etcd")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}

	t.Setenv("PANICCONF_STORAGE_DRIVER", "postgres")
	t.Setenv("PANICCONF_POSTGRES_DSN", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for postgres without dsn")
	}

	t.Setenv("PANICCONF_STORAGE_DRIVER", "memory")
	t.Setenv("PANICCONF_BLOB_DRIVER", "s3")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for s3 blob without bucket")
	}

	t.Setenv("PANICCONF_BLOB_DRIVER", "fs")
	t.Setenv("PANICCONF_METRICS_EXPORTER", "statsd")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown metrics exporter")
	}
}

func TestObservabilityOverrides(t *testing.T) {
	t.Setenv("PANICCONF_METRICS_EXPORTER", "expvar")
	t.Setenv("PANICCONF_TRACE_FILE", "/var/log/panicconf/trace.jsonl")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Observability.MetricsExporter != "expvar" {
		t.Fatalf("metrics exporter = %s", cfg.Observability.MetricsExporter)
	}
	if cfg.Observability.TraceFile != "/var/log/panicconf/trace.jsonl" {
		t.Fatalf("trace file = %s", cfg.Observability.TraceFile)
	}
}

func TestNewLoggerBuilds(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "json"}, "panicconf")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Debug("config loaded")
	_ = logger.Sync()
}
