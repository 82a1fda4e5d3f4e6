package redis

import (
	"context"

	"github.com/turtacn/BodyMap-Insight/internal/domain/snapshot"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
)

const snapshotPrefix = "bodymap:snapshot:"

// SnapshotStore keeps one snapshot per storage key, without expiry.
type SnapshotStore struct {
	cache Cache
}

var _ snapshot.Store = (*SnapshotStore)(nil)

func NewSnapshotStore(client *Client, log logging.Logger) *SnapshotStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SnapshotStore{cache: NewRedisCache(client, log, WithPrefix(snapshotPrefix))}
}

func (s *SnapshotStore) Save(ctx context.Context, key string, snap snapshot.Snapshot) error {
	return s.cache.Set(ctx, key, snap, 0)
}

func (s *SnapshotStore) Load(ctx context.Context, key string) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	if err := s.cache.Get(ctx, key, &snap); err != nil {
		if err == ErrCacheMiss {
			return snapshot.Snapshot{}, snapshot.NotFound(key)
		}
		return snapshot.Snapshot{}, err
	}
	return snap, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}

func (s *SnapshotStore) Backend() string { return "redis" }
