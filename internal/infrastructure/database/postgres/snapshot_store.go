package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/turtacn/BodyMap-Insight/internal/domain/snapshot"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/BodyMap-Insight/pkg/errors"
)

const (
	upsertSnapshotSQL = `INSERT INTO quiz_snapshots (storage_key, payload, saved_at, kind, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (storage_key) DO UPDATE
SET payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at, kind = EXCLUDED.kind, updated_at = NOW()`
	selectSnapshotSQL = `SELECT payload FROM quiz_snapshots WHERE storage_key = $1`
	deleteSnapshotSQL = `DELETE FROM quiz_snapshots WHERE storage_key = $1`
)

// SnapshotStore keeps the last snapshot per storage key in quiz_snapshots.
type SnapshotStore struct {
	db     *sql.DB
	logger logging.Logger
}

var _ snapshot.Store = (*SnapshotStore)(nil)

func NewSnapshotStore(conn *Connection, log logging.Logger) *SnapshotStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SnapshotStore{db: conn.DB(), logger: log}
}

// Save overwrites any previous snapshot under key.
func (s *SnapshotStore) Save(ctx context.Context, key string, snap snapshot.Snapshot) error {
	payload, err := snap.Encode()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertSnapshotSQL, key, payload, snap.SavedAt, kindOf(snap)); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, "failed to save snapshot")
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, key string) (snapshot.Snapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, selectSnapshotSQL, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.Snapshot{}, snapshot.NotFound(key)
	}
	if err != nil {
		return snapshot.Snapshot{}, pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, "failed to load snapshot")
	}
	return snapshot.Decode(payload)
}

func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteSnapshotSQL, key); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, "failed to delete snapshot")
	}
	return nil
}

func (s *SnapshotStore) Backend() string { return "postgres" }

func kindOf(snap snapshot.Snapshot) string {
	if len(snap.Insight) > 0 {
		return "insight"
	}
	return "result"
}
