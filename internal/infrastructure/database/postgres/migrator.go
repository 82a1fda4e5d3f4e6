package postgres

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/BodyMap-Insight/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationState is the applied schema version. Dirty means a migration
// failed halfway and needs manual repair.
type MigrationState struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
	Latest  uint `json:"latest"`
}

// Migrator applies the embedded migrations. It opens its own connection so
// that closing it never touches the application pool.
type Migrator struct {
	url    string
	logger logging.Logger
}

func NewMigrator(cfg PostgresConfig, log logging.Logger) *Migrator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Migrator{url: migrationURL(cfg), logger: log}
}

// Up applies all pending migrations. Nothing pending is not an error.
func (m *Migrator) Up() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := mg.Version()
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, fmt.Sprintf("failed to run migrations (current version: %d)", version))
	}

	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		m.logger.Warn("Failed to get migration version", logging.Err(err))
	}
	m.logger.Info("Database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return pkgerrors.InvalidParam(fmt.Sprintf("steps must be greater than 0, got %d", steps))
	}
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return pkgerrors.New(pkgerrors.ErrCodeConflict, "no migrations to roll back")
		}
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, fmt.Sprintf("failed to rollback %d step(s)", steps))
	}
	return nil
}

// Status reports the applied version; a fresh database is version 0.
func (m *Migrator) Status() (MigrationState, error) {
	latest, err := latestVersion()
	if err != nil {
		return MigrationState{}, err
	}
	mg, err := m.open()
	if err != nil {
		return MigrationState{}, err
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return MigrationState{Latest: latest}, nil
		}
		return MigrationState{}, pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, "failed to get migration version")
	}
	return MigrationState{Version: version, Dirty: dirty, Latest: latest}, nil
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "failed to load embedded migrations")
	}
	mg, err := migrate.NewWithSourceInstance("iofs", src, m.url)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	return mg, nil
}

// Versions lists the embedded migration versions in ascending order.
func Versions() ([]uint, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "failed to load embedded migrations")
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "no embedded migrations")
	}
	versions := []uint{v}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return versions, nil
		}
		if err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "failed to read embedded migrations")
		}
		versions = append(versions, next)
		v = next
	}
}

func latestVersion() (uint, error) {
	versions, err := Versions()
	if err != nil {
		return 0, err
	}
	return versions[len(versions)-1], nil
}

// migrationURL points the pgx/v5 migrate driver at the same database.
func migrationURL(cfg PostgresConfig) string {
	return "pgx5" + strings.TrimPrefix(buildDSN(cfg), "postgres")
}
