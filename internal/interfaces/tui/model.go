package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/turtacn/BodyMap-Insight/internal/application/quiz"
	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
	"github.com/turtacn/BodyMap-Insight/internal/domain/marker"
)

// Default grid size in cells. Each cell stands for the point at its centre.
const (
	DefaultCols = 25
	DefaultRows = 30
)

type mode int

const (
	modeMap mode = iota
	modeOptions
	modeRegions
)

type sessionMsg struct {
	view *quiz.SessionView
	err  error
}

type commandMsg struct {
	result *quiz.CommandResult
	err    error
}

type analysisMsg struct {
	analysis *quiz.Analysis
	url      string
	err      error
}

// Model is the bubbletea model of one quiz session.
type Model struct {
	ctx       context.Context
	svc       quiz.Service
	layout    *anatomy.Layout
	sessionID string

	cols, rows int
	cx, cy     int
	mode       mode
	optCursor  int
	regCursor  int

	view        *quiz.SessionView
	analysis    *quiz.Analysis
	continueURL string
	status      string
	err         error
	busy        bool
	quitting    bool

	keys   KeyMap
	help   help.Model
	styles Styles
}

// Option configures a Model.
type Option func(*Model)

// WithGrid sets the grid size. Values below 2 are ignored.
func WithGrid(cols, rows int) Option {
	return func(m *Model) {
		if cols >= 2 {
			m.cols = cols
		}
		if rows >= 2 {
			m.rows = rows
		}
	}
}

// WithStyles replaces DefaultStyles.
func WithStyles(s Styles) Option {
	return func(m *Model) { m.styles = s }
}

// WithKeyMap replaces DefaultKeyMap.
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) { m.keys = k }
}

// New returns a model for an existing session drawn on layout.
func New(ctx context.Context, svc quiz.Service, layout *anatomy.Layout, sessionID string, opts ...Option) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	m := Model{
		ctx:       ctx,
		svc:       svc,
		layout:    layout,
		sessionID: sessionID,
		cols:      DefaultCols,
		rows:      DefaultRows,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		styles:    DefaultStyles(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.cx, m.cy = m.cols/2, m.rows/2
	return m
}

// Init loads the session.
func (m Model) Init() tea.Cmd {
	svc, ctx, id := m.svc, m.ctx, m.sessionID
	return func() tea.Msg {
		view, err := svc.GetSession(ctx, id)
		return sessionMsg{view: view, err: err}
	}
}

// Point returns the normalized coordinates under the crosshair.
func (m Model) Point() (x, y float64) {
	return (float64(m.cx) + 0.5) / float64(m.cols), (float64(m.cy) + 0.5) / float64(m.rows)
}

// Session returns the last session view received.
func (m Model) Session() *quiz.SessionView { return m.view }

// Analysis returns the last analysis, if any.
func (m Model) Analysis() *quiz.Analysis { return m.analysis }

// ContinueURL returns the redirect URL computed after the last analysis.
func (m Model) ContinueURL() string { return m.continueURL }

// Err returns the last command error.
func (m Model) Err() error { return m.err }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case sessionMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.view = msg.view
		}
		return m, nil

	case commandMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.view = msg.result.Session
		m.status = ""
		if !msg.result.Applied {
			m.status = "nothing changed"
		}
		m.syncOptionMode()
		return m, nil

	case analysisMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.analysis = msg.analysis
		m.continueURL = msg.url
		m.status = "saved under " + msg.analysis.StorageKey
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.busy {
		return m, nil
	}
	switch m.mode {
	case modeOptions:
		return m.handleOptionKey(msg)
	case modeRegions:
		return m.handleRegionKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.cy = max(m.cy-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cy = min(m.cy+1, m.rows-1)
	case key.Matches(msg, m.keys.Left):
		m.cx = max(m.cx-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.cx = min(m.cx+1, m.cols-1)

	case key.Matches(msg, m.keys.Place):
		x, y := m.Point()
		return m.run(func(ctx context.Context, svc quiz.Service, id string) (*quiz.CommandResult, error) {
			return svc.PlaceMarker(ctx, id, x, y)
		})

	case key.Matches(msg, m.keys.Next), key.Matches(msg, m.keys.Prev):
		target, ok := m.cycle(key.Matches(msg, m.keys.Next))
		if !ok {
			return m, nil
		}
		return m.run(func(ctx context.Context, svc quiz.Service, id string) (*quiz.CommandResult, error) {
			return svc.SetActive(ctx, id, target)
		})

	case key.Matches(msg, m.keys.Delete):
		active, ok := m.activeMarker()
		if !ok {
			return m, nil
		}
		return m.run(func(ctx context.Context, svc quiz.Service, id string) (*quiz.CommandResult, error) {
			return svc.RemoveMarker(ctx, id, active.ID)
		})

	case key.Matches(msg, m.keys.Clear):
		return m.run(func(ctx context.Context, svc quiz.Service, id string) (*quiz.CommandResult, error) {
			return svc.ClearMarkers(ctx, id)
		})

	case key.Matches(msg, m.keys.Options):
		if active, ok := m.activeMarker(); ok && len(active.Options) > 0 {
			m.mode = modeOptions
			m.optCursor = 0
		}

	case key.Matches(msg, m.keys.Regions):
		if active, ok := m.activeMarker(); ok && m.layout != nil && len(m.layout.Regions) > 0 {
			m.mode = modeRegions
			m.regCursor = 0
			for i, r := range m.layout.Regions {
				if r.ID == active.Region.ID {
					m.regCursor = i
				}
			}
		}

	case key.Matches(msg, m.keys.Analyze):
		m.busy = true
		svc, ctx, id := m.svc, m.ctx, m.sessionID
		return m, func() tea.Msg {
			a, err := svc.Analyze(ctx, id)
			if err != nil {
				return analysisMsg{err: err}
			}
			url, err := svc.ContinueURL(ctx, id)
			return analysisMsg{analysis: a, url: url, err: err}
		}
	}
	return m, nil
}

func (m Model) handleOptionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active, ok := m.activeMarker()
	if !ok {
		m.mode = modeMap
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeMap
	case key.Matches(msg, m.keys.Up):
		m.optCursor = max(m.optCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.optCursor = min(m.optCursor+1, len(active.Options)-1)
	case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Place):
		option := active.Options[m.optCursor].ID
		return m.run(func(ctx context.Context, svc quiz.Service, id string) (*quiz.CommandResult, error) {
			return svc.ToggleOption(ctx, id, active.ID, option)
		})
	}
	return m, nil
}

// handleRegionKey moves through the layout's regions; enter reclassifies the
// active marker into the highlighted one.
func (m Model) handleRegionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active, ok := m.activeMarker()
	if !ok || m.layout == nil {
		m.mode = modeMap
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeMap
	case key.Matches(msg, m.keys.Up):
		m.regCursor = max(m.regCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.regCursor = min(m.regCursor+1, len(m.layout.Regions)-1)
	case key.Matches(msg, m.keys.Place):
		region := m.layout.Regions[m.regCursor].ID
		m.mode = modeMap
		return m.run(func(ctx context.Context, svc quiz.Service, id string) (*quiz.CommandResult, error) {
			return svc.OverrideRegion(ctx, id, active.ID, region)
		})
	}
	return m, nil
}

func (m Model) run(fn func(ctx context.Context, svc quiz.Service, id string) (*quiz.CommandResult, error)) (tea.Model, tea.Cmd) {
	m.busy = true
	svc, ctx, id := m.svc, m.ctx, m.sessionID
	return m, func() tea.Msg {
		res, err := fn(ctx, svc, id)
		return commandMsg{result: res, err: err}
	}
}

func (m *Model) syncOptionMode() {
	if m.mode != modeOptions {
		return
	}
	active, ok := m.activeMarker()
	if !ok || len(active.Options) == 0 {
		m.mode = modeMap
		m.optCursor = 0
		return
	}
	if m.optCursor >= len(active.Options) {
		m.optCursor = len(active.Options) - 1
	}
}

func (m Model) activeMarker() (marker.Marker, bool) {
	if m.view == nil || m.view.ActiveID == "" {
		return marker.Marker{}, false
	}
	for _, mk := range m.view.Markers {
		if mk.ID == m.view.ActiveID {
			return mk, true
		}
	}
	return marker.Marker{}, false
}

// cycle returns the id of the marker after (or before) the active one,
// wrapping around.
func (m Model) cycle(forward bool) (string, bool) {
	if m.view == nil || len(m.view.Markers) < 2 {
		return "", false
	}
	n := len(m.view.Markers)
	idx := 0
	for i, mk := range m.view.Markers {
		if mk.ID == m.view.ActiveID {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % n
	} else {
		idx = (idx - 1 + n) % n
	}
	return m.view.Markers[idx].ID, true
}

// cellOf maps a normalized point onto the grid.
func (m Model) cellOf(x, y float64) (col, row int) {
	col = int(math.Floor(x * float64(m.cols)))
	row = int(math.Floor(y * float64(m.rows)))
	return min(max(col, 0), m.cols-1), min(max(row, 0), m.rows-1)
}

// bandRows marks the rows that contain a band boundary.
func (m Model) bandRows() map[int]bool {
	rows := make(map[int]bool)
	if m.layout == nil {
		return rows
	}
	for _, b := range m.layout.Bands {
		if b.Upper == nil {
			continue
		}
		_, row := m.cellOf(0, *b.Upper)
		rows[row] = true
	}
	return rows
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	name := "Body map"
	if m.layout != nil {
		name = m.layout.Name
	}
	b.WriteString(m.styles.Title.Render("BodyMap Insight"))
	b.WriteString(" ")
	b.WriteString(m.styles.Subtitle.Render(name))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderGrid(), " ", m.renderPanel()))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(m.styles.Error.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.styles.Muted.Render(m.status))
		b.WriteString("\n")
	}
	if m.continueURL != "" {
		b.WriteString("Continue: ")
		b.WriteString(m.styles.Link.Render(m.continueURL))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

type cell struct {
	glyph string
	style lipgloss.Style
}

func (m Model) renderGrid() string {
	cells := make(map[[2]int]cell)
	if m.view != nil {
		for i, mk := range m.view.Markers {
			col, row := m.cellOf(mk.X, mk.Y)
			c := cell{glyph: markerGlyph(i), style: m.styles.Marker}
			if mk.ID == m.view.ActiveID {
				c = cell{glyph: "@", style: m.styles.Active}
			}
			cells[[2]int{col, row}] = c
		}
	}
	edges := m.bandRows()

	var b strings.Builder
	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.cols; col++ {
			c, ok := cells[[2]int{col, row}]
			switch {
			case ok:
			case edges[row]:
				c = cell{glyph: "-", style: m.styles.BandEdge}
			default:
				c = cell{glyph: ".", style: m.styles.Cell}
			}
			if col == m.cx && row == m.cy {
				if !ok {
					c.glyph = "+"
				}
				c.style = m.styles.Cursor
			}
			b.WriteString(c.style.Render(c.glyph))
		}
		if row < m.rows-1 {
			b.WriteString("\n")
		}
	}
	return m.styles.Grid.Render(b.String())
}

func (m Model) renderPanel() string {
	var b strings.Builder

	x, y := m.Point()
	if m.layout != nil {
		c := m.layout.Classify(x, y)
		fmt.Fprintf(&b, "Cursor %.2f, %.2f\n%s (%s)\n\n", x, y, c.Region.Label, c.Side.Title())
	}

	if m.view == nil || len(m.view.Markers) == 0 {
		b.WriteString(m.styles.Muted.Render("No dots yet. Move and press enter."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.styles.ThemeHead.Render("Dots"))
		b.WriteString("\n")
		for i, mk := range m.view.Markers {
			prefix := "  "
			if mk.ID == m.view.ActiveID {
				prefix = "> "
			}
			fmt.Fprintf(&b, "%s%s %s (%s) %d/%d\n", prefix, markerGlyph(i), mk.Region.Label, mk.Side.Title(), len(mk.Selected), len(mk.Options))
		}
		if active, ok := m.activeMarker(); ok {
			b.WriteString("\n")
			if m.mode == modeRegions {
				b.WriteString(m.renderRegions(active))
			} else {
				b.WriteString(m.renderOptions(active))
			}
		}
	}

	if m.view != nil && len(m.view.Themes) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.ThemeHead.Render("Themes"))
		b.WriteString("\n")
		for _, t := range m.view.Themes {
			b.WriteString("- " + t.Title + "\n")
		}
	}
	return m.styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderOptions(active marker.Marker) string {
	var b strings.Builder
	heading := "Structures (o to refine, r to change region)"
	if m.mode == modeOptions {
		heading = "Structures (space to toggle, esc to return)"
	}
	b.WriteString(m.styles.Subtitle.Render(heading))
	b.WriteString("\n")
	for i, opt := range active.Options {
		box := "[ ]"
		style := m.styles.Option
		if active.IsSelected(opt.ID) {
			box = "[x]"
			style = m.styles.Selected
		}
		line := style.Render(box + " " + opt.Label)
		if m.mode == modeOptions && i == m.optCursor {
			line = m.styles.Focused.Render(box + " " + opt.Label)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRegions(active marker.Marker) string {
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Region (enter to move the dot, esc to return)"))
	b.WriteString("\n")
	for i, r := range m.layout.Regions {
		mark := "  "
		if r.ID == active.Region.ID {
			mark = "* "
		}
		line := m.styles.Option.Render(mark + r.Label)
		if i == m.regCursor {
			line = m.styles.Focused.Render(mark + r.Label)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func markerGlyph(i int) string {
	const glyphs = "123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if i < len(glyphs) {
		return string(glyphs[i])
	}
	return "*"
}

// Run starts an interactive program on the terminal and returns the final
// model once the user quits.
func Run(m Model, opts ...tea.ProgramOption) (Model, error) {
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return m, err
	}
	if fm, ok := final.(Model); ok {
		return fm, nil
	}
	return m, nil
}
