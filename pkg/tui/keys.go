package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the viewer.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	Enter        key.Binding
	Tab          key.Binding
	ToggleExpand key.Binding
	Warnings     key.Binding
	Reload       key.Binding
	Search       key.Binding
	Help         key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "collapse"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "expand"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "toggle expand"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		ToggleExpand: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "toggle expand/collapse all"),
		),
		Warnings: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "warnings"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the footer help text.
func (k KeyMap) ShortHelp() string {
	return "↑↓ nav  ←→ fold  tab pane  / search  w warnings  R reload  ? help  q quit"
}

// FullHelp returns all key bindings for the help modal.
func (k KeyMap) FullHelp() [][]string {
	return [][]string{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"←/h", "Collapse"},
		{"→/l", "Expand"},
		{"enter", "Toggle expand/collapse"},
		{"tab", "Switch pane (goals / details)"},
		{"C", "Toggle expand/collapse all"},
		{"/", "Search goals"},
		{"w", "Show plan warnings"},
		{"R", "Reload plan and reschedule"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
}
