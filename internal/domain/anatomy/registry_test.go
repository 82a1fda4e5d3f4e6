package anatomy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

const customLayout = `
id: custom
name: Two-band test layout
regions:
  - id: upper
    label: Upper body
  - id: lower
    label: Lower body
bands:
  - upper: 0.5
    region: upper
  - region: lower
`

func writeLayout(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestNewRegistry_Builtins(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	ids := make([]string, 0)
	for _, l := range r.List() {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{LayoutDetailed, LayoutSimple}, ids)
	assert.Equal(t, LayoutDetailed, r.Default().ID)
	assert.Equal(t, LayoutDetailed, r.DefaultID())

	l, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, LayoutDetailed, l.ID)
}

func TestRegistry_GetUnknown(t *testing.T) {
	_, err := MustDefaultRegistry().Get("nope")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLayoutNotFound))
	assert.True(t, errors.IsNotFound(err))
}

func TestNewRegistry_UnknownDefault(t *testing.T) {
	_, err := NewRegistry(WithDefaultLayout("missing"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeLayoutNotFound))
}

func TestNewRegistry_ExternalDirectory(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "custom.yaml", customLayout)
	writeLayout(t, dir, "README.md", "ignored")

	r, err := NewRegistry(WithDirectory(dir), WithDefaultLayout("custom"))
	require.NoError(t, err)

	l := r.Default()
	assert.Equal(t, "custom", l.ID)
	assert.Equal(t, "upper", l.Classify(0.1, 0.49).Region.ID)
	assert.Equal(t, "lower", l.Classify(0.1, 0.5).Region.ID)
	assert.Len(t, r.List(), 3)
}

func TestNewRegistry_InvalidExternalLayout(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "broken.yaml", "id: broken\nregions: []\nbands: []\n")

	_, err := NewRegistry(WithDirectory(dir))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLayoutInvalid))
}

func TestParseLayout_UnknownField(t *testing.T) {
	_, err := ParseLayout([]byte(customLayout + "colour: blue\n"))
	assert.Error(t, err)
}

func TestRegistry_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "custom.yaml", customLayout)
	r, err := NewRegistry(WithDirectory(dir))
	require.NoError(t, err)

	writeLayout(t, dir, "custom.yaml", "id: custom\n")
	assert.Error(t, r.Reload())

	_, err = r.Get("custom")
	assert.NoError(t, err)
}

func TestRegistry_WatchWithoutDirectory(t *testing.T) {
	assert.Error(t, MustDefaultRegistry().Watch(context.Background(), nil))
}

func TestRegistry_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry(WithDirectory(dir))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan error, 8)
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, func(err error) { reloaded <- err }) }()

	require.Eventually(t, func() bool {
		writeLayout(t, dir, "custom.yaml", customLayout)
		select {
		case err := <-reloaded:
			return err == nil
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	_, err = r.Get("custom")
	assert.NoError(t, err)

	cancel()
	assert.NoError(t, <-done)
}
