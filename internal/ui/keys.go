package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the console key bindings.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding

	// Views
	ViewFixes key.Binding
	ViewLogs  key.Binding

	// Engine actions
	Start    key.Binding
	Stop     key.Binding
	Rollback key.Binding
	Clear    key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Logs
	ToggleFollow key.Binding
	CycleLevel   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "Switch view"),
		),

		ViewFixes: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "Applied fixes"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Engine logs"),
		),

		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Start polling"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Stop polling"),
		),
		Rollback: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Roll back selected fix"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c c", "Clear all fixes"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
		CycleLevel: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Cycle minimum level"),
		),
	}
}

// ShortHelp returns key bindings for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Rollback, k.Clear, k.ViewFixes, k.ViewLogs, k.Help, k.Quit}
}

// FullHelp returns key bindings grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Rollback, k.Clear},
		{k.Tab, k.ViewFixes, k.ViewLogs},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.ToggleFollow, k.CycleLevel},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
