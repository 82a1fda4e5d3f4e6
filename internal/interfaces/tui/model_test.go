package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BodyMap-Insight/internal/application/quiz"
	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
	"github.com/turtacn/BodyMap-Insight/internal/domain/session"
	"github.com/turtacn/BodyMap-Insight/internal/domain/snapshot"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

func newTestModel(t *testing.T) (Model, quiz.Service) {
	t.Helper()
	layouts := anatomy.MustDefaultRegistry()
	svc := quiz.NewService(layouts, session.NewMemoryRepository(time.Hour, nil), snapshot.NewMemoryStore(), nil)
	view, err := svc.CreateSession(context.Background(), anatomy.LayoutDetailed)
	require.NoError(t, err)

	layout, err := layouts.Get(anatomy.LayoutDetailed)
	require.NoError(t, err)

	m := New(context.Background(), svc, layout, view.ID, WithStyles(PlainStyles()))
	return drain(m, m.Init()), svc
}

// drain runs cmd and feeds every resulting message back into the model.
func drain(m Model, cmd tea.Cmd) Model {
	var next tea.Model = m
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			break
		}
		next, cmd = next.Update(msg)
	}
	return next.(Model)
}

func press(m Model, msgs ...tea.KeyMsg) Model {
	for _, msg := range msgs {
		next, cmd := m.Update(msg)
		m = drain(next.(Model), cmd)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func repeat(msg tea.KeyMsg, n int) []tea.KeyMsg {
	out := make([]tea.KeyMsg, n)
	for i := range out {
		out[i] = msg
	}
	return out
}

func TestNew_CentersCursor(t *testing.T) {
	m, _ := newTestModel(t)
	x, y := m.Point()
	assert.InDelta(t, 0.5, x, 1e-9)
	assert.InDelta(t, 15.5/30, y, 1e-9)
	require.NotNil(t, m.Session())
	assert.Empty(t, m.Session().Markers)
}

func TestUpdate_CursorStaysOnGrid(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(m, repeat(tea.KeyMsg{Type: tea.KeyUp}, 50)...)
	m = press(m, repeat(runes("h"), 50)...)
	x, y := m.Point()
	assert.InDelta(t, 0.5/DefaultCols, x, 1e-9)
	assert.InDelta(t, 0.5/DefaultRows, y, 1e-9)

	m = press(m, repeat(tea.KeyMsg{Type: tea.KeyDown}, 50)...)
	m = press(m, repeat(runes("l"), 50)...)
	x, y = m.Point()
	assert.InDelta(t, 1-0.5/DefaultCols, x, 1e-9)
	assert.InDelta(t, 1-0.5/DefaultRows, y, 1e-9)
}

func TestUpdate_PlaceRefineAnalyze(t *testing.T) {
	m, _ := newTestModel(t)

	// Row 1 is inside the head band.
	m = press(m, repeat(tea.KeyMsg{Type: tea.KeyUp}, 14)...)
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NoError(t, m.Err())
	require.Len(t, m.Session().Markers, 1)

	placed := m.Session().Markers[0]
	assert.Equal(t, "head", placed.Region.ID)
	assert.Equal(t, anatomy.SideCentral, placed.Side)
	assert.Equal(t, placed.ID, m.Session().ActiveID)
	assert.Len(t, placed.Selected, len(placed.Options))

	m = press(m, runes("o"), tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: tea.KeyEsc})
	refined := m.Session().Markers[0]
	assert.Len(t, refined.Selected, len(refined.Options)-1)
	assert.False(t, refined.IsSelected(refined.Options[0].ID))

	m = press(m, runes("a"))
	require.NoError(t, m.Err())
	require.NotNil(t, m.Analysis())
	assert.Equal(t, quiz.ModeThemes, m.Analysis().Mode)
	assert.NotEmpty(t, m.Analysis().Themes)
	assert.True(t, strings.HasPrefix(m.ContinueURL(), quiz.DefaultRedirectBaseURL+"?data="))
	assert.Contains(t, m.View(), "Continue:")
}

func TestUpdate_OptionModeKeepsLastSelection(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(m, repeat(tea.KeyMsg{Type: tea.KeyUp}, 14)...)
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter}, runes("o"))

	n := len(m.Session().Markers[0].Options)
	for i := 0; i < n; i++ {
		m = press(m, tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: tea.KeyDown})
	}
	mk := m.Session().Markers[0]
	assert.Len(t, mk.Selected, 1, "the last selected structure cannot be removed")
	assert.Equal(t, mk.Options[n-1].ID, mk.Selected[0])
	assert.Contains(t, m.View(), "nothing changed")
}

func TestUpdate_RegionOverrideKeepsSideAndReselects(t *testing.T) {
	m, _ := newTestModel(t)
	// Column 4 is left of the side cut; row 15 is the lower abdomen band.
	m = press(m, repeat(tea.KeyMsg{Type: tea.KeyLeft}, 8)...)
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.Session().Markers, 1)
	placed := m.Session().Markers[0]
	require.Equal(t, "lower_abdomen_pelvis", placed.Region.ID)
	require.Equal(t, anatomy.SideLeft, placed.Side)

	m = press(m, runes("o"), tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: tea.KeyEsc})
	require.Len(t, m.Session().Markers[0].Selected, len(placed.Options)-1)

	m = press(m, runes("r"))
	assert.Contains(t, m.View(), "Hips & thighs")
	m = press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	require.NoError(t, m.Err())

	moved := m.Session().Markers[0]
	assert.Equal(t, placed.ID, moved.ID)
	assert.Equal(t, "hips_thighs", moved.Region.ID)
	assert.Equal(t, anatomy.SideLeft, moved.Side)
	assert.Equal(t, m.layout.OptionsFor("hips_thighs", anatomy.SideLeft), moved.Options)
	assert.Len(t, moved.Selected, len(moved.Options))
	assert.Equal(t, modeMap, m.mode)
}

func TestUpdate_RegionPickerEscapeChangesNothing(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(m, runes("r"))
	assert.Equal(t, modeMap, m.mode, "no active dot, no picker")

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter}, runes("r"), tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeMap, m.mode)
	assert.Equal(t, "lower_abdomen_pelvis", m.Session().Markers[0].Region.ID)
}

func TestUpdate_CycleDeleteClear(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(m, repeat(tea.KeyMsg{Type: tea.KeyUp}, 10)...)
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.Session().Markers, 2)
	first, second := m.Session().Markers[0].ID, m.Session().Markers[1].ID
	assert.Equal(t, second, m.Session().ActiveID)

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, first, m.Session().ActiveID)
	m = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, second, m.Session().ActiveID)

	m = press(m, runes("x"))
	require.Len(t, m.Session().Markers, 1)
	assert.Equal(t, first, m.Session().Markers[0].ID)

	m = press(m, runes("C"))
	assert.Empty(t, m.Session().Markers)
	assert.Contains(t, m.View(), "No dots yet")
}

func TestUpdate_SessionGoneShowsError(t *testing.T) {
	m, svc := newTestModel(t)
	require.NoError(t, svc.DeleteSession(context.Background(), m.sessionID))

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Error(t, m.Err())
	assert.True(t, errors.IsCode(m.Err(), errors.ErrCodeSessionNotFound))
	assert.Contains(t, m.View(), "error:")
}

func TestUpdate_Quit(t *testing.T) {
	m, _ := newTestModel(t)
	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestView_DrawsMarkersAndCursor(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter}, runes("k"))

	out := m.View()
	assert.Contains(t, out, "BodyMap Insight")
	assert.Contains(t, out, "Detailed body map")
	assert.Contains(t, out, "@", "active marker glyph")
	assert.Contains(t, out, "+", "crosshair")
	assert.Contains(t, out, "Themes")
}

func TestWithGrid(t *testing.T) {
	m := New(context.Background(), nil, nil, "s", WithGrid(4, 1))
	assert.Equal(t, 4, m.cols)
	assert.Equal(t, DefaultRows, m.rows)
	x, _ := m.Point()
	assert.InDelta(t, 2.5/4, x, 1e-9)
}
