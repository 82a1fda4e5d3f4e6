// Package bootstrap wires a Config into a running quiz service: the layout
// registry, the session and snapshot backends, the optional insight event
// producer, metrics and the health checks that cover each of them.
package bootstrap

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/BodyMap-Insight/internal/application/quiz"
	"github.com/turtacn/BodyMap-Insight/internal/config"
	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
	"github.com/turtacn/BodyMap-Insight/internal/domain/session"
	"github.com/turtacn/BodyMap-Insight/internal/domain/snapshot"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/database/redis"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/database/sqlite"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/storage/minio"
	httpapi "github.com/turtacn/BodyMap-Insight/internal/interfaces/http"
	"github.com/turtacn/BodyMap-Insight/internal/interfaces/http/handlers"
	"github.com/turtacn/BodyMap-Insight/internal/interfaces/http/middleware"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// App holds every long-lived component built from a Config.
type App struct {
	Config    *config.Config
	Logger    logging.Logger
	Layouts   *anatomy.Registry
	Service   quiz.Service
	Metrics   *prometheus.AppMetrics
	Collector prometheus.MetricsCollector
	Checkers  []handlers.HealthChecker
	Version   string

	closers []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// Option adjusts App construction.
type Option func(*App)

// WithVersion sets the version reported by the health endpoints.
func WithVersion(v string) Option {
	return func(a *App) { a.Version = v }
}

// New builds the App. On error every component opened so far is closed.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeInvalidParam, "config is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	a := &App{Config: cfg, Logger: logger, Version: "dev"}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	layouts, err := anatomy.NewRegistry(
		anatomy.WithDirectory(cfg.Quiz.LayoutsDir),
		anatomy.WithDefaultLayout(cfg.Quiz.DefaultLayout),
	)
	if err != nil {
		return err
	}
	a.Layouts = layouts
	a.addCheck("layouts", func(context.Context) error {
		if layouts.Default() == nil {
			return errors.New(errors.ErrCodeLayoutNotFound, "default layout missing")
		}
		return nil
	})

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			Subsystem:            cfg.Metrics.Subsystem,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, a.Logger)
		if err != nil {
			return err
		}
		a.Collector = collector
		a.Metrics = prometheus.NewAppMetrics(collector)
	}

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient, err = redis.NewClient(ctx, redis.RedisConfig{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, a.Logger)
		if err != nil {
			return err
		}
		a.addCloser("redis", redisClient)
		a.addCheck("redis", redisClient.Ping)
	}

	snapshots, err := a.openSnapshotStore(ctx, redisClient)
	if err != nil {
		return err
	}

	var sessions session.Repository
	svcOpts := []quiz.Option{
		quiz.WithStorageKey(cfg.Quiz.StorageKey),
		quiz.WithRedirectBaseURL(cfg.Quiz.RedirectBaseURL),
		quiz.WithMetrics(a.Metrics),
	}
	if cfg.Quiz.SharedSnapshotKey {
		svcOpts = append(svcOpts, quiz.WithSharedSnapshotKey())
	}
	if cfg.Storage.Sessions == config.BackendRedis {
		sessions = redis.NewSessionRepository(redisClient, cfg.Quiz.SessionTTL, a.Logger)
		svcOpts = append(svcOpts, quiz.WithLocker(redis.NewLockFactory(redisClient, a.Logger)))
	} else {
		sessions = session.NewMemoryRepository(cfg.Quiz.SessionTTL, nil)
	}

	if cfg.Kafka.Enabled {
		producer, err := a.openProducer(ctx)
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, quiz.WithPublisher(producer))
	}

	a.Service = quiz.NewService(layouts, sessions, snapshots, a.Logger, svcOpts...)
	a.Logger.Info("quiz service ready",
		logging.String("snapshots", snapshot.BackendName(snapshots)),
		logging.String("sessions", cfg.Storage.Sessions),
		logging.String("default_layout", layouts.DefaultID()),
		logging.Bool("events", cfg.Kafka.Enabled),
	)
	return nil
}

func (a *App) openSnapshotStore(ctx context.Context, redisClient *redis.Client) (snapshot.Store, error) {
	cfg := a.Config
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		a.addCloser("sqlite", db)
		a.addCheck("sqlite", db.PingContext)
		return sqlite.NewSnapshotStore(db), nil

	case config.BackendRedis:
		return redis.NewSnapshotStore(redisClient, a.Logger), nil

	case config.BackendPostgres:
		pgCfg := PostgresConfig(cfg.Database)
		if cfg.Database.AutoMigrate {
			if err := postgres.NewMigrator(pgCfg, a.Logger).Up(); err != nil {
				return nil, err
			}
		}
		conn, err := postgres.NewConnection(ctx, pgCfg, a.Logger)
		if err != nil {
			return nil, err
		}
		a.addCloser("postgres", conn)
		a.addCheck("postgres", conn.HealthCheck)
		return postgres.NewSnapshotStore(conn, a.Logger), nil

	case config.BackendMinIO:
		client, err := minio.NewMinIOClient(&minio.MinIOConfig{
			Endpoint:      cfg.MinIO.Endpoint,
			AccessKey:     cfg.MinIO.AccessKey,
			SecretKey:     cfg.MinIO.SecretKey,
			UseSSL:        cfg.MinIO.UseSSL,
			Region:        cfg.MinIO.Region,
			Bucket:        cfg.MinIO.Bucket,
			Prefix:        cfg.MinIO.Prefix,
			RetentionDays: cfg.MinIO.RetentionDays,
		}, a.Logger)
		if err != nil {
			return nil, err
		}
		a.addCloser("minio", client)
		a.addCheck("minio", client.HealthCheck)
		return minio.NewSnapshotStore(client), nil

	default:
		return snapshot.NewMemoryStore(), nil
	}
}

func (a *App) openProducer(ctx context.Context) (*kafka.Producer, error) {
	cfg := a.Config.Kafka

	topics, err := kafka.NewTopicManager(cfg.Brokers, a.Logger)
	if err != nil {
		a.Logger.Warn("kafka topic manager unavailable", logging.Err(err))
	} else {
		if err := topics.EnsureTopic(ctx, kafka.TopicConfig{Name: cfg.Topic, NumPartitions: 3, ReplicationFactor: 1}); err != nil {
			a.Logger.Warn("ensure insight topic failed", logging.String("topic", cfg.Topic), logging.Err(err))
		}
		topics.Close()
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Acks:         AcksName(cfg.RequiredAcks),
		WriteTimeout: cfg.WriteTimeout,
	}, a.Logger)
	if err != nil {
		return nil, err
	}
	a.addCloser("kafka", producer)
	return producer, nil
}

// PostgresConfig maps the database section onto the driver config.
func PostgresConfig(c config.DatabaseConfig) postgres.PostgresConfig {
	return postgres.PostgresConfig{
		Host:             c.Host,
		Port:             c.Port,
		Database:         c.DBName,
		Username:         c.User,
		Password:         c.Password,
		SSLMode:          c.SSLMode,
		MaxOpenConns:     c.MaxOpenConns,
		MaxIdleConns:     c.MaxIdleConns,
		ConnMaxLifetime:  c.ConnMaxLifetime,
		ConnMaxIdleTime:  c.ConnMaxIdleTime,
		StatementTimeout: c.StatementTimeout,
	}
}

// AcksName converts kafka.required_acks (-1, 0, 1) to the producer setting.
func AcksName(n int) string {
	switch {
	case n < 0:
		return "all"
	case n == 0:
		return "none"
	default:
		return "one"
	}
}

func (a *App) addCloser(name string, c io.Closer) {
	a.closers = append(a.closers, namedCloser{name: name, c: c})
}

func (a *App) addCheck(name string, fn func(context.Context) error) {
	a.Checkers = append(a.Checkers, handlers.NewCheck(name, fn))
}

// Handler builds the HTTP route tree for the App.
func (a *App) Handler() http.Handler {
	cfg := a.Config

	var cors *middleware.CORSConfig
	if len(cfg.Server.AllowedOrigins) > 0 {
		c := middleware.DefaultCORSConfig()
		c.AllowedOrigins = cfg.Server.AllowedOrigins
		for _, o := range c.AllowedOrigins {
			if strings.HasPrefix(o, "*.") {
				c.AllowWildcard = true
			}
		}
		cors = &c
	}

	logCfg := middleware.DefaultLoggingConfig()
	if cfg.Metrics.Path != "" {
		logCfg.SkipPaths = append(logCfg.SkipPaths, cfg.Metrics.Path)
	}

	return httpapi.NewRouter(httpapi.RouterConfig{
		QuizHandler:      handlers.NewQuizHandler(a.Service, a.Layouts, a.Logger),
		HealthHandler:    handlers.NewHealthHandler(a.Version, a.Checkers...),
		CORS:             cors,
		Logging:          logCfg,
		Logger:           a.Logger,
		Metrics:          a.Metrics,
		MetricsCollector: a.Collector,
		MetricsPath:      cfg.Metrics.Path,
	})
}

// Server returns an HTTP server for Handler configured from the server
// section.
func (a *App) Server() *httpapi.Server {
	s := a.Config.Server
	return httpapi.NewServer(httpapi.ServerOptions{
		Addr:            s.Addr(),
		ReadTimeout:     s.ReadTimeout,
		WriteTimeout:    s.WriteTimeout,
		ShutdownTimeout: s.ShutdownTimeout,
	}, a.Handler(), a.Logger)
}

// WatchLayouts reloads the layout registry on file changes until ctx is
// done. It is a no-op unless quiz.watch_layouts is set with a directory.
func (a *App) WatchLayouts(ctx context.Context) {
	if !a.Config.Quiz.WatchLayouts || a.Config.Quiz.LayoutsDir == "" {
		return
	}
	go func() {
		err := a.Layouts.Watch(ctx, func(err error) {
			if err != nil {
				a.Logger.Warn("layout reload failed, keeping previous set", logging.Err(err))
				return
			}
			a.Logger.Info("layouts reloaded", logging.Int("count", len(a.Layouts.List())))
		})
		if err != nil {
			a.Logger.Error("layout watcher stopped", logging.Err(err))
		}
	}()
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := a.Server()
	a.WatchLayouts(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases components in reverse order of creation.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.Logger.Warn("close component failed", logging.String(logging.FieldComponent, nc.name), logging.Err(err))
			if first == nil {
				first = err
			}
		}
	}
	a.closers = nil
	return first
}
