package tui

import tea "github.com/charmbracelet/bubbletea"

// View is the interface every TUI panel must implement.
// Each view is a self-contained Bubble Tea sub-model.
type View interface {
	// Init returns an initial command.
	Init() tea.Cmd

	// Update handles messages and returns updated view + command.
	Update(msg tea.Msg) (View, tea.Cmd)

	// View renders the panel content (without the border, which is
	// drawn by the App).
	View() string

	// Name returns the panel title.
	Name() string

	// ShortHelp returns key bindings for the bottom help bar.
	ShortHelp() []KeyBinding

	// SetSize is called when the terminal is resized.
	SetSize(width, height int)

	// SetFocused tells the panel whether it receives key presses.
	SetFocused(focused bool)
}

// KeyBinding describes a keyboard shortcut for the help bar.
type KeyBinding struct {
	Key  string
	Desc string
}
