// Command apiserver runs the BodyMap Insight HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/BodyMap-Insight/internal/bootstrap"
	"github.com/turtacn/BodyMap-Insight/internal/config"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.NewLogger(cfg.Log.Logging())
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	if configPath != "" {
		err := config.Watch(configPath,
			func(next *config.Config) {
				if logging.SetLevel(logger, next.Log.Level) {
					logger.Info("log level changed", logging.String("level", next.Log.Level))
				}
			},
			func(err error) { logger.Warn("ignoring invalid config revision", logging.Err(err)) },
		)
		if err != nil {
			logger.Warn("config watch disabled", logging.Err(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.WithVersion(version))
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("starting BodyMap Insight API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()),
		logging.String("storage", cfg.Storage.Backend),
		logging.String("sessions", cfg.Storage.Sessions))
	if err := app.Run(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
