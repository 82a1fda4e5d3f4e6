package minio

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/BodyMap-Insight/internal/domain/snapshot"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

const contentTypeJSON = "application/json"

// SnapshotStore writes each snapshot to <prefix><key>.json. Overwriting the
// object is last-write-wins.
type SnapshotStore struct {
	client *MinIOClient
}

var _ snapshot.Store = (*SnapshotStore)(nil)

func NewSnapshotStore(client *MinIOClient) *SnapshotStore {
	return &SnapshotStore{client: client}
}

func (s *SnapshotStore) objectName(key string) string {
	return s.client.config.Prefix + key + ".json"
}

func (s *SnapshotStore) Save(ctx context.Context, key string, snap snapshot.Snapshot) error {
	if s.client.isClosed() {
		return ErrMinIOClientClosed
	}
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	_, err = s.client.client.PutObject(ctx, s.client.config.Bucket, s.objectName(key), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentTypeJSON,
		UserMetadata: map[string]string{"saved-at": snap.SavedAt},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to upload snapshot").WithDetail(key)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, key string) (snapshot.Snapshot, error) {
	if s.client.isClosed() {
		return snapshot.Snapshot{}, ErrMinIOClientClosed
	}
	obj, err := s.client.client.GetObject(ctx, s.client.config.Bucket, s.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return snapshot.Snapshot{}, s.readError(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return snapshot.Snapshot{}, s.readError(key, err)
	}
	return snapshot.Decode(data)
}

func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	if s.client.isClosed() {
		return ErrMinIOClientClosed
	}
	if err := s.client.client.RemoveObject(ctx, s.client.config.Bucket, s.objectName(key), minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to remove snapshot").WithDetail(key)
	}
	return nil
}

func (s *SnapshotStore) Backend() string { return "minio" }

func (s *SnapshotStore) readError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return snapshot.NotFound(key)
	}
	return errors.Wrap(err, errors.ErrCodeStorageError, "failed to download snapshot").WithDetail(key)
}
