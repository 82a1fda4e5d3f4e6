package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BodyMap-Insight/internal/application/quiz"
	"github.com/turtacn/BodyMap-Insight/internal/config"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/database/sqlite"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BodyMap-Insight/internal/testutil"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

func TestLayoutsCmd(t *testing.T) {
	cfg := testutil.NewConfig(t)

	out, err := execute(t, cfg, "layouts", "-o", "json")
	require.NoError(t, err)
	var layouts []quiz.LayoutSummary
	require.NoError(t, json.Unmarshal([]byte(out), &layouts))
	require.NotEmpty(t, layouts)

	var def *quiz.LayoutSummary
	for i := range layouts {
		if layouts[i].Default {
			def = &layouts[i]
		}
	}
	require.NotNil(t, def)
	assert.Equal(t, "detailed", def.ID)

	out, err = execute(t, cfg, "layouts", "-o", "table")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ID"))
	assert.Contains(t, out, "detailed")

	out, err = execute(t, cfg, "layouts")
	require.NoError(t, err)
	assert.Contains(t, out, "(default)")
}

func TestClassifyCmd(t *testing.T) {
	cfg := testutil.NewConfig(t)

	out, err := execute(t, cfg, "classify", "0.9", "0.05", "-o", "json")
	require.NoError(t, err)
	var c quiz.Classification
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, "head", c.Region.ID)
	assert.Equal(t, "central", string(c.Side))
	assert.NotEmpty(t, c.Options)

	out, err = execute(t, cfg, "classify", "0.1", "0.3", "-o", "table")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "OPTION"))
}

func TestClassifyCmd_InvalidArgs(t *testing.T) {
	cfg := testutil.NewConfig(t)

	_, err := execute(t, cfg, "classify", "0.5")
	require.Error(t, err)

	_, err = execute(t, cfg, "classify", "abc", "0.5")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPoint))

	_, err = execute(t, cfg, "classify", "NaN", "0.5")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPoint))

	_, err = execute(t, cfg, "classify", "--layout", "nope", "0.5", "0.5")
	assert.True(t, errors.IsCode(err, errors.ErrCodeLayoutNotFound))
}

func TestAnalyzeCmd_Points(t *testing.T) {
	cfg := testutil.NewConfig(t)

	out, err := execute(t, cfg, "analyze", "--point", "0.5,0.05", "--point", "0.2,0.3", "-o", "json")
	require.NoError(t, err)

	var res AnalyzeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, quiz.ModeThemes, res.Mode)
	assert.NotEmpty(t, res.Themes)
	assert.Equal(t, cfg.Quiz.StorageKey, res.StorageKey)
	assert.True(t, strings.HasPrefix(res.ContinueURL, cfg.Quiz.RedirectBaseURL+"?data="))
}

func TestAnalyzeCmd_Form(t *testing.T) {
	cfg := testutil.NewConfig(t)

	out, err := execute(t, cfg, "analyze",
		"--region", "head", "--system", "digestive", "--symptom", "pain",
		"--duration", "weeks", "--intensity", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "Session:")
	assert.Contains(t, out, "Continue: "+cfg.Quiz.RedirectBaseURL)

	out, err = execute(t, cfg, "analyze", "--mode", "rule", "--at", "0.5,0.45",
		"--layer", "muscle", "--symptom", "tight", "-o", "json")
	require.NoError(t, err)
	var res AnalyzeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "rule", res.Mode)
	assert.NotNil(t, res.Insight)
}

func TestAnalyzeCmd_PointsRejectFormMode(t *testing.T) {
	_, err := execute(t, testutil.NewConfig(t), "analyze", "--point", "0.5,0.5", "--mode", "rule")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = execute(t, testutil.NewConfig(t), "analyze", "--point", "0.5")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPoint))
}

func TestSnapshotAndContinueURL_AcrossInvocations(t *testing.T) {
	cfg := testutil.NewSQLiteConfig(t)

	out, err := execute(t, cfg, "analyze", "--point", "0.5,0.05", "-o", "json")
	require.NoError(t, err)
	var res AnalyzeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	out, err = execute(t, cfg, "snapshot")
	require.NoError(t, err)
	var snap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Contains(t, snap, "input")
	assert.Contains(t, snap, "savedAt")

	out, err = execute(t, cfg, "continue-url")
	require.NoError(t, err)
	got := strings.TrimSpace(out)
	assert.Equal(t, res.ContinueURL, got)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.NotEmpty(t, u.Query().Get("data"))
}

func TestSnapshotCmd_Errors(t *testing.T) {
	cfg := testutil.NewConfig(t)

	_, err := execute(t, cfg, "snapshot")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSnapshotNotFound))

	_, err = execute(t, cfg, "snapshot", "--session", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSnapshotNotFound))

	out, err := execute(t, cfg, "continue-url")
	require.NoError(t, err)
	assert.Equal(t, cfg.Quiz.RedirectBaseURL+"?data=%7B%7D", strings.TrimSpace(out))
}

func TestAnalyzeCmd_OverwritesOneKey(t *testing.T) {
	cfg := testutil.NewSQLiteConfig(t)

	out, err := execute(t, cfg, "analyze", "--region", "head", "--system", "digestive", "-o", "json")
	require.NoError(t, err)
	var first AnalyzeResult
	require.NoError(t, json.Unmarshal([]byte(out), &first))

	out, err = execute(t, cfg, "analyze", "--region", "chest", "--system", "respiratory", "-o", "json")
	require.NoError(t, err)
	var second AnalyzeResult
	require.NoError(t, json.Unmarshal([]byte(out), &second))

	require.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, cfg.Quiz.StorageKey, first.StorageKey)
	assert.Equal(t, cfg.Quiz.StorageKey, second.StorageKey)

	db, err := sqlite.Open(context.Background(), cfg.SQLite.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var keys []string
	rows, err := db.Query(`SELECT storage_key FROM quiz_snapshots`)
	require.NoError(t, err)
	for rows.Next() {
		var k string
		require.NoError(t, rows.Scan(&k))
		keys = append(keys, k)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{cfg.Quiz.StorageKey}, keys)

	out, err = execute(t, cfg, "snapshot")
	require.NoError(t, err)
	var snap struct {
		Input struct {
			Region string `json:"region"`
			System string `json:"system"`
		} `json:"input"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "chest", snap.Input.Region)
	assert.Equal(t, "respiratory", snap.Input.System)
}

func TestParseGrid(t *testing.T) {
	cols, rows, err := parseGrid("40X20")
	require.NoError(t, err)
	assert.Equal(t, 40, cols)
	assert.Equal(t, 20, rows)

	for _, bad := range []string{"", "40", "1x20", "axb", "10x20x30"} {
		_, _, err := parseGrid(bad)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParam), bad)
	}
}

func TestQuizCmd_RejectsBadGrid(t *testing.T) {
	_, err := execute(t, testutil.NewConfig(t), "quiz", "--grid", "0x0")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

type fakeMigrator struct {
	ups   int
	downs []int
	state postgres.MigrationState
}

func (f *fakeMigrator) Up() error                                { f.ups++; return nil }
func (f *fakeMigrator) Down(steps int) error                     { f.downs = append(f.downs, steps); return nil }
func (f *fakeMigrator) Status() (postgres.MigrationState, error) { return f.state, nil }

func runMigrate(t *testing.T, m *fakeMigrator, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(WithConfig(testutil.NewConfig(t)), WithLogger(logging.NewNopLogger()))
	for _, c := range root.Commands() {
		if c.Name() == "migrate" {
			root.RemoveCommand(c)
		}
	}
	root.AddCommand(newMigrateCmd(func(config.DatabaseConfig, logging.Logger) Migrator { return m }))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"migrate"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCmd(t *testing.T) {
	m := &fakeMigrator{state: postgres.MigrationState{Version: 1, Latest: 2}}

	out, err := runMigrate(t, m, "up")
	require.NoError(t, err)
	assert.Equal(t, 1, m.ups)
	assert.Contains(t, out, "OK:")

	_, err = runMigrate(t, m, "down", "--steps", "2")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, m.downs)

	_, err = runMigrate(t, m, "down", "--steps", "0")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	out, err = runMigrate(t, m, "status")
	require.NoError(t, err)
	assert.Equal(t, "version 1 of 2 (clean)\n", out)

	out, err = runMigrate(t, m, "status", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "VERSION")

	_, err = runMigrate(t, m, "up", "extra")
	require.Error(t, err)
}
