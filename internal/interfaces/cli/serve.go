package cli

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/BodyMap-Insight/internal/bootstrap"
	"github.com/turtacn/BodyMap-Insight/internal/config"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// NewServeCmd runs the HTTP API until SIGINT or SIGTERM.
func NewServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the quiz HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if port > 0 {
				cliCtx.Config.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := cliCtx.OpenApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			cliCtx.Logger.Info("starting BodyMap Insight API",
				logging.String("version", Version),
				logging.String("addr", cliCtx.Config.Server.Addr()),
				logging.String("storage", cliCtx.Config.Storage.Backend))
			return app.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

// Migrator is the schema migration surface used by the migrate command.
type Migrator interface {
	Up() error
	Down(steps int) error
	Status() (postgres.MigrationState, error)
}

// MigratorFactory builds a Migrator from the database section.
type MigratorFactory func(cfg config.DatabaseConfig, logger logging.Logger) Migrator

func defaultMigrator(cfg config.DatabaseConfig, logger logging.Logger) Migrator {
	return postgres.NewMigrator(bootstrap.PostgresConfig(cfg), logger)
}

// NewMigrateCmd manages the PostgreSQL snapshot schema.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmd(defaultMigrator)
}

func newMigrateCmd(factory MigratorFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL snapshot schema",
	}

	run := func(fn func(cmd *cobra.Command, m Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return fn(cmd, factory(cliCtx.Config.Database, cliCtx.Logger))
		}
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, m Migrator) error {
			if steps < 1 {
				return errors.InvalidParam("--steps must be at least 1").WithDetail(strconv.Itoa(steps))
			}
			if err := m.Down(steps); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
			return nil
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, m Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				PrintSuccess(cmd, "schema is up to date")
				return nil
			}),
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Show the applied and latest migration versions",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, m Migrator) error {
				st, err := m.Status()
				if err != nil {
					return err
				}
				return PrintResult(cmd, migrationStatus(st))
			}),
		},
	)
	return cmd
}

type migrationStatus postgres.MigrationState

func (s migrationStatus) TableHeaders() []string { return []string{"VERSION", "LATEST", "DIRTY"} }

func (s migrationStatus) TableRows() [][]string {
	return [][]string{{
		strconv.FormatUint(uint64(s.Version), 10),
		strconv.FormatUint(uint64(s.Latest), 10),
		strconv.FormatBool(s.Dirty),
	}}
}

func (s migrationStatus) String() string {
	state := "clean"
	if s.Dirty {
		state = "dirty"
	}
	return fmt.Sprintf("version %d of %d (%s)", s.Version, s.Latest, state)
}

// BuildInfo holds version information injected at build time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("bodymap %s (commit: %s, built: %s)", b.Version, b.Commit, b.BuildDate)
}

// NewVersionCmd prints build information.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, BuildInfo{Version: Version, Commit: GitCommit, BuildDate: BuildDate})
		},
	}
}
