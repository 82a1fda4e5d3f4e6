package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultLayout          = "detailed"
	DefaultRedirectBaseURL = "https://app.roothealth.app"
	DefaultStorageKey      = "rootHealthDiagnostic"
	DefaultSessionTTL      = 24 * time.Hour

	DefaultStorageBackend = BackendMemory
	DefaultSQLitePath     = "bodymap.db"

	DefaultRedisAddr = "localhost:6379"

	DefaultDBHost         = "localhost"
	DefaultDBPort         = 5432
	DefaultDBName         = "bodymap"
	DefaultDBMaxOpenConns = 10

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "bodymap-snapshots"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "insight.analyzed"

	DefaultMetricsNamespace = "bodymap"
	DefaultMetricsPath      = "/metrics"
)

// ApplyDefaults fills every zero-value field in cfg. Explicit values win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 1 << 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Quiz.DefaultLayout == "" {
		cfg.Quiz.DefaultLayout = DefaultLayout
	}
	if cfg.Quiz.RedirectBaseURL == "" {
		cfg.Quiz.RedirectBaseURL = DefaultRedirectBaseURL
	}
	if cfg.Quiz.StorageKey == "" {
		cfg.Quiz.StorageKey = DefaultStorageKey
	}
	if cfg.Quiz.SessionTTL == 0 {
		cfg.Quiz.SessionTTL = DefaultSessionTTL
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Sessions == "" {
		cfg.Storage.Sessions = BackendMemory
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultSQLitePath
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	// DB 0 is both the zero value and the default.

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDBMaxOpenConns
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.RequiredAcks == 0 {
		cfg.Kafka.RequiredAcks = 1
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// envKeys lists every key bound to a BODYMAP_ variable so that environment
// overrides reach Unmarshal even when the key is absent from the file.
var envKeys = []string{
	"server.host",
	"server.port",
	"server.mode",
	"server.read_timeout",
	"server.write_timeout",
	"server.max_body_size",
	"server.shutdown_timeout",
	"server.allowed_origins",
	"log.level",
	"log.format",
	"log.output_paths",
	"quiz.default_layout",
	"quiz.layouts_dir",
	"quiz.watch_layouts",
	"quiz.redirect_base_url",
	"quiz.storage_key",
	"quiz.shared_snapshot_key",
	"quiz.session_ttl",
	"storage.backend",
	"storage.sessions",
	"sqlite.path",
	"redis.addr",
	"redis.password",
	"redis.db",
	"redis.pool_size",
	"redis.min_idle_conns",
	"redis.dial_timeout",
	"redis.read_timeout",
	"redis.write_timeout",
	"database.host",
	"database.port",
	"database.user",
	"database.password",
	"database.db_name",
	"database.ssl_mode",
	"database.max_open_conns",
	"database.max_idle_conns",
	"database.conn_max_lifetime",
	"database.conn_max_idle_time",
	"database.statement_timeout",
	"database.auto_migrate",
	"minio.endpoint",
	"minio.access_key",
	"minio.secret_key",
	"minio.use_ssl",
	"minio.bucket",
	"minio.region",
	"minio.prefix",
	"minio.retention_days",
	"kafka.enabled",
	"kafka.brokers",
	"kafka.topic",
	"kafka.required_acks",
	"kafka.write_timeout",
	"metrics.enabled",
	"metrics.namespace",
	"metrics.subsystem",
	"metrics.path",
}

func bindEnv(v *viper.Viper) {
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
}
