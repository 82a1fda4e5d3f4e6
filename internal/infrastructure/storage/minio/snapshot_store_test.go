package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BodyMap-Insight/internal/domain/snapshot"
	pkgerrors "github.com/turtacn/BodyMap-Insight/pkg/errors"
)

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }
func (r failingReader) Close() error             { return nil }

func newTestStore(api *MockMinIOAPI) *SnapshotStore {
	return NewSnapshotStore(NewClientWithAPI(api, &MinIOConfig{Bucket: "snaps", Prefix: "quiz"}, nil))
}

func TestSnapshotStore_Save(t *testing.T) {
	api := new(MockMinIOAPI)
	store := newTestStore(api)
	ctx := context.Background()
	snap := snapshot.Snapshot{Input: []byte(`[]`), Result: []byte(`[]`), SavedAt: "2026-03-01T12:00:00.000Z"}
	data, _ := snap.Encode()

	api.On("PutObject", ctx, "snaps", "quiz/rootHealthDiagnostic.json", mock.Anything, int64(len(data)),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == "application/json" && o.UserMetadata["saved-at"] == snap.SavedAt
		})).Return(minio.UploadInfo{}, nil)

	require.NoError(t, store.Save(ctx, "rootHealthDiagnostic", snap))
	api.AssertExpectations(t)
	assert.Equal(t, "minio", snapshot.BackendName(store))
}

func TestSnapshotStore_SaveFailure(t *testing.T) {
	api := new(MockMinIOAPI)
	store := newTestStore(api)

	api.On("PutObject", mock.Anything, "snaps", "quiz/k.json", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("quota exceeded"))

	err := store.Save(context.Background(), "k", snapshot.Snapshot{SavedAt: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func TestSnapshotStore_Load(t *testing.T) {
	api := new(MockMinIOAPI)
	store := newTestStore(api)
	ctx := context.Background()
	snap := snapshot.Snapshot{Input: []byte(`{"region":"Chest"}`), Insight: []byte(`{"title":"Heart"}`), SavedAt: "2026-03-01T12:00:00.000Z"}
	data, _ := snap.Encode()

	api.On("GetObject", ctx, "snaps", "quiz/k.json", minio.GetObjectOptions{}).
		Return(io.NopCloser(bytes.NewReader(data)), nil)

	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestSnapshotStore_LoadMissing(t *testing.T) {
	api := new(MockMinIOAPI)
	store := newTestStore(api)

	missing := minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	api.On("GetObject", mock.Anything, "snaps", "quiz/k.json", mock.Anything).
		Return(failingReader{err: missing}, nil)

	_, err := store.Load(context.Background(), "k")
	assert.True(t, snapshot.IsNotFound(err))
}

func TestSnapshotStore_LoadFailure(t *testing.T) {
	api := new(MockMinIOAPI)
	store := newTestStore(api)

	api.On("GetObject", mock.Anything, "snaps", "quiz/k.json", mock.Anything).
		Return(nil, errors.New("connection reset"))

	_, err := store.Load(context.Background(), "k")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func TestSnapshotStore_DeleteAndClosed(t *testing.T) {
	api := new(MockMinIOAPI)
	store := newTestStore(api)
	ctx := context.Background()

	api.On("RemoveObject", ctx, "snaps", "quiz/k.json", minio.RemoveObjectOptions{}).Return(nil)
	require.NoError(t, store.Delete(ctx, "k"))

	require.NoError(t, store.client.Close())
	assert.Equal(t, ErrMinIOClientClosed, store.Delete(ctx, "k"))
	assert.Equal(t, ErrMinIOClientClosed, store.Save(ctx, "k", snapshot.Snapshot{}))
	_, err := store.Load(ctx, "k")
	assert.Equal(t, ErrMinIOClientClosed, err)
	api.AssertExpectations(t)
}
