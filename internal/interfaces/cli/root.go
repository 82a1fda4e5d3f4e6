// Package cli implements the bodymap command line: layout inspection, point
// classification, one-shot analysis, snapshot lookup, the terminal quiz and
// the API server.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/BodyMap-Insight/internal/bootstrap"
	"github.com/turtacn/BodyMap-Insight/internal/config"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// AppFactory builds the application for commands that need the quiz service.
type AppFactory func(ctx context.Context, cfg *config.Config, logger logging.Logger) (*bootstrap.App, error)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration

	// Set programmatically; not flags.
	config  *config.Config
	logger  logging.Logger
	factory AppFactory
}

// RootOption adjusts the root command, mainly for tests and embedding.
type RootOption func(*RootOptions)

// WithConfig skips config file discovery and uses cfg.
func WithConfig(cfg *config.Config) RootOption {
	return func(o *RootOptions) { o.config = cfg }
}

// WithLogger skips logger construction and uses l.
func WithLogger(l logging.Logger) RootOption {
	return func(o *RootOptions) { o.logger = l }
}

// WithAppFactory replaces bootstrap.New.
func WithAppFactory(f AppFactory) RootOption {
	return func(o *RootOptions) { o.factory = f }
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration

	factory AppFactory
}

// OpenApp builds the application. The caller closes it.
func (c *CLIContext) OpenApp(ctx context.Context) (*bootstrap.App, error) {
	return c.factory(ctx, c.Config, c.Logger)
}

// OpenLocalApp is OpenApp with snapshots under the bare storage key: local
// runs keep one last-saved snapshot, whatever session produced it.
func (c *CLIContext) OpenLocalApp(ctx context.Context) (*bootstrap.App, error) {
	cfg := *c.Config
	cfg.Quiz.SharedSnapshotKey = true
	return c.factory(ctx, &cfg, c.Logger)
}

// NewRootCommand creates the root cobra command with all global flags and subcommands.
func NewRootCommand(options ...RootOption) *cobra.Command {
	opts := &RootOptions{}
	for _, o := range options {
		o(opts)
	}
	if opts.factory == nil {
		opts.factory = func(ctx context.Context, cfg *config.Config, logger logging.Logger) (*bootstrap.App, error) {
			return bootstrap.New(ctx, cfg, logger, bootstrap.WithVersion(Version))
		}
	}

	cmd := &cobra.Command{
		Use:   "bodymap",
		Short: "BodyMap Insight: body-map wellness quiz",
		Long: "BodyMap Insight maps points on a body diagram to regions and structures,\n" +
			"turns the selections into explanatory themes, and stores a snapshot that\n" +
			"is handed off to the intake application.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./bodymap.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "timeout for one-shot commands")

	cmd.AddCommand(
		NewLayoutsCmd(),
		NewClassifyCmd(),
		NewAnalyzeCmd(),
		NewSnapshotCmd(),
		NewContinueURLCmd(),
		NewQuizCmd(),
		NewServeCmd(),
		NewMigrateCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// persistentPreRun initializes config and logger, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg := opts.config
	if cfg == nil {
		loaded, err := initConfig(opts)
		if err != nil {
			return fmt.Errorf("config initialization failed: %w", err)
		}
		cfg = loaded
	}

	logger := opts.logger
	if logger == nil {
		l, err := initLogger(opts)
		if err != nil {
			return fmt.Errorf("logger initialization failed: %w", err)
		}
		logger = l
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: opts.OutputFormat,
		Verbose:      opts.Verbose,
		NoColor:      opts.NoColor,
		Timeout:      opts.Timeout,
		factory:      opts.factory,
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	cmd.SetContext(context.WithValue(parent, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./bodymap.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".bodymap", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/bodymap/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

// initLogger creates a logger configured for CLI usage (output to stderr).
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := logging.LevelWarn
	switch strings.ToLower(opts.LogLevel) {
	case "debug":
		level = logging.LevelDebug
	case "info":
		level = logging.LevelInfo
	case "error":
		level = logging.LevelError
	}
	if opts.Verbose {
		level = logging.LevelDebug
	}

	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

type appOpener func(*CLIContext, context.Context) (*bootstrap.App, error)

// withApp opens the local application under the command timeout, runs fn and
// closes it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	return runApp(cmd, (*CLIContext).OpenLocalApp, fn)
}

// withSessionApp is withApp with per-session snapshot keys, for reading what a
// server stored for one session.
func withSessionApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	return runApp(cmd, (*CLIContext).OpenApp, fn)
}

func runApp(cmd *cobra.Command, open appOpener, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if cliCtx.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cliCtx.Timeout)
		defer cancel()
	}
	app, err := open(cliCtx, ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}
