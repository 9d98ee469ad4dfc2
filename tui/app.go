// app.go is the top-level Bubble Tea model.
//
// Layout: the connection form in a sidebar on the left, the chat pane
// on the right, a header above and the help bar below. Tab moves the
// keyboard focus between the two panes; Ctrl+C quits.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DachengChen/chatdb/chat"
	"github.com/DachengChen/chatdb/config"
)

const appVersion = "0.1.0"

// Pane indices.
const (
	PaneConnect = iota
	PaneChat
)

const sidebarWidth = 44

// Chatter is the session the UI drives. *chat.Session implements it.
type Chatter interface {
	Connect(ctx context.Context, desc config.Database) error
	Ask(ctx context.Context, question string) (chat.Outcome, error)
	Log() []chat.Turn
	Connected() (config.Database, bool)
}

// Options configure the UI.
type Options struct {
	// Prefill is shown in the connection form on startup.
	Prefill config.Database
	// Provider is the language model's display name.
	Provider string
}

// App is the root Bubble Tea model.
type App struct {
	chatter Chatter
	opts    Options
	panes   []View
	focus   int

	width  int
	height int
}

// NewApp creates the application with the form focused.
func NewApp(ctx context.Context, chatter Chatter, opts Options) *App {
	a := &App{
		chatter: chatter,
		opts:    opts,
		panes: []View{
			NewConnectView(ctx, chatter, opts.Prefill),
			NewChatView(ctx, chatter, opts.Provider),
		},
		focus: PaneConnect,
	}
	a.panes[a.focus].SetFocused(true)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, p := range a.panes {
		cmds = append(cmds, p.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "tab", "shift+tab":
			a.switchFocus()
			return a, nil
		}
		return a.forward(a.focus, msg)

	case ConnectedMsg:
		a.forward(PaneConnect, msg)
		// the next question goes straight to the chat
		a.setFocus(PaneChat)
		return a, nil

	case ConnectErrorMsg:
		return a.forward(PaneConnect, msg)

	case AnswerMsg, StateMsg:
		return a.forward(PaneChat, msg)
	}

	return a, nil
}

func (a *App) forward(idx int, msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := a.panes[idx].Update(msg)
	a.panes[idx] = updated
	return a, cmd
}

func (a *App) switchFocus() {
	a.setFocus((a.focus + 1) % len(a.panes))
}

func (a *App) setFocus(idx int) {
	a.panes[a.focus].SetFocused(false)
	a.focus = idx
	a.panes[a.focus].SetFocused(true)
}

// Focus returns the index of the focused pane.
func (a *App) Focus() int {
	return a.focus
}

func (a *App) resize() {
	// header(1) + help bar(1) + borders(2)
	bodyH := a.height - 4
	if bodyH < 1 {
		bodyH = 1
	}
	side := sidebarWidth
	if a.width < 2*sidebarWidth {
		side = a.width / 2
	}
	a.panes[PaneConnect].SetSize(side-4, bodyH)
	a.panes[PaneChat].SetSize(a.width-side-4, bodyH)
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	side := sidebarWidth
	if a.width < 2*sidebarWidth {
		side = a.width / 2
	}
	bodyH := a.height - 4
	if bodyH < 1 {
		bodyH = 1
	}

	left := a.frame(PaneConnect, side-2, bodyH)
	right := a.frame(PaneChat, a.width-side-2, bodyH)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return a.renderHeader() + "\n" + body + "\n" + a.renderStatusBar()
}

func (a *App) frame(idx, width, height int) string {
	style := StyleBorder.Padding(0, 1).Width(width).Height(height)
	if idx == a.focus {
		style = style.BorderForeground(ColorAccent)
	}
	return style.Render(a.panes[idx].View())
}

// renderHeader draws the title, the model in use and the connection.
func (a *App) renderHeader() string {
	left := StyleBold.Render("🗄 chatdb") + StyleDimmed.Render(" v"+appVersion)
	if a.opts.Provider != "" {
		left += StyleDimmed.Render("  🤖 " + a.opts.Provider)
	}

	right := StyleDimmed.Render("not connected")
	if desc, ok := a.chatter.Connected(); ok {
		right = StyleSuccess.Render("⚡ " + desc.Address())
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().
		Width(a.width).
		Render(left + strings.Repeat(" ", gap) + right)
}

func (a *App) renderStatusBar() string {
	items := append(a.panes[a.focus].ShortHelp(),
		KeyBinding{Key: "Tab", Desc: "switch pane"},
		KeyBinding{Key: "Ctrl+C", Desc: "quit"},
	)
	var parts []string
	for _, h := range items {
		parts = append(parts, StyleHelpKey.Render(h.Key)+" "+StyleHelpDesc.Render(h.Desc))
	}
	return StyleStatusBar.Width(a.width).Render(strings.Join(parts, "  │  "))
}
