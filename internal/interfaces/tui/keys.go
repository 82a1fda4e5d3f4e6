package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap binds every quiz action to its keys.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Place   key.Binding
	Next    key.Binding
	Prev    key.Binding
	Options key.Binding
	Toggle  key.Binding
	Regions key.Binding
	Back    key.Binding
	Delete  key.Binding
	Clear   key.Binding
	Analyze key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Place:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "place dot")),
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next dot")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous dot")),
		Options: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "refine structures")),
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle structure")),
		Regions: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "change region")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to map")),
		Delete:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove dot")),
		Clear:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear all")),
		Analyze: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "analyze")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Place, k.Options, k.Analyze, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Place, k.Next, k.Prev, k.Delete, k.Clear},
		{k.Options, k.Toggle, k.Regions, k.Back},
		{k.Analyze, k.Help, k.Quit},
	}
}
