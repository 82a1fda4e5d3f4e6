package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/turtacn/BodyMap-Insight/internal/domain/snapshot"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// SnapshotStore keeps one row per storage key.
type SnapshotStore struct {
	db *sql.DB
}

var _ snapshot.Store = (*SnapshotStore)(nil)

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Save(ctx context.Context, key string, snap snapshot.Snapshot) error {
	payload, err := snap.Encode()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quiz_snapshots (storage_key, payload, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(storage_key) DO UPDATE SET
			payload = excluded.payload,
			saved_at = excluded.saved_at,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		key, string(payload), snap.SavedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save snapshot")
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, key string) (snapshot.Snapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM quiz_snapshots WHERE storage_key = ?`, key).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		return snapshot.Snapshot{}, snapshot.NotFound(key)
	}
	if err != nil {
		return snapshot.Snapshot{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load snapshot")
	}
	return snapshot.Decode([]byte(payload))
}

func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM quiz_snapshots WHERE storage_key = ?`, key); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete snapshot")
	}
	return nil
}

func (s *SnapshotStore) Backend() string { return "sqlite" }
