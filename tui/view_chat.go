// view_chat.go is the chat pane.
//
// Enter sends the question to the session as one question cycle. The
// cycle runs in a tea.Cmd; the session's state changes arrive as
// StateMsg and the result as AnswerMsg. Input is locked while a cycle
// runs.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DachengChen/chatdb/applog"
	"github.com/DachengChen/chatdb/chat"
)

type ChatView struct {
	ctx      context.Context
	chatter  Chatter
	provider string
	viewport *Viewport
	input    string
	pending  string // question of the running cycle
	loading  bool
	state    chat.State
	err      error
	lastSQL  string
	focused  bool
	width    int
	height   int
}

func NewChatView(ctx context.Context, chatter Chatter, provider string) *ChatView {
	return &ChatView{
		ctx:      ctx,
		chatter:  chatter,
		provider: provider,
		viewport: NewViewport(80, 20),
	}
}

func (v *ChatView) Name() string { return "Chat" }

func (v *ChatView) SetFocused(focused bool) { v.focused = focused }

func (v *ChatView) SetSize(width, height int) {
	v.width = width
	v.height = height
	// prompt(1) + blank(1) + scroll indicator(1)
	v.viewport.SetSize(width, height-3)
	v.refresh()
}

func (v *ChatView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "Enter", Desc: "ask"},
		{Key: "PgUp/PgDn", Desc: "scroll"},
		{Key: "Ctrl+U", Desc: "clear input"},
	}
}

func (v *ChatView) Init() tea.Cmd {
	v.refresh()
	return nil
}

func (v *ChatView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case StateMsg:
		v.state = chat.State(msg)
		v.refresh()
		return v, nil

	case AnswerMsg:
		v.loading = false
		v.pending = ""
		v.err = msg.Err
		if msg.Err == nil {
			v.lastSQL = msg.Outcome.SQL
		}
		v.refresh()
		v.viewport.End()
		return v, nil
	}

	return v, nil
}

func (v *ChatView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "pgup":
		v.viewport.PageUp()
		return v, nil
	case "pgdown":
		v.viewport.PageDown()
		return v, nil
	case "ctrl+k":
		v.viewport.ScrollUp(1)
		return v, nil
	case "ctrl+j":
		v.viewport.ScrollDown(1)
		return v, nil
	}

	if v.loading {
		return v, nil
	}

	switch msg.String() {
	case "enter":
		return v, v.ask()
	case "backspace":
		if r := []rune(v.input); len(r) > 0 {
			v.input = string(r[:len(r)-1])
		}
	case "ctrl+u":
		v.input = ""
	default:
		if msg.Type == tea.KeyRunes {
			v.input += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			v.input += " "
		}
	}
	return v, nil
}

// ask starts a question cycle for the current input.
func (v *ChatView) ask() tea.Cmd {
	question := strings.TrimSpace(v.input)
	if question == "" {
		return nil
	}

	v.input = ""
	v.pending = question
	v.loading = true
	v.err = nil
	v.state = chat.StateIdle
	v.refresh()
	v.viewport.End()

	ctx, chatter := v.ctx, v.chatter
	return func() tea.Msg {
		out, err := chatter.Ask(ctx, question)
		return AnswerMsg{Outcome: out, Err: err}
	}
}

func (v *ChatView) refresh() {
	v.viewport.SetContentLines(v.renderChat())
}

func (v *ChatView) renderChat() []string {
	var lines []string

	lines = append(lines, StyleTitle.Render("💬 Chat with your database")+" "+
		StyleDimmed.Render("("+v.provider+")"))

	turns := v.chatter.Log()
	if len(turns) == 0 && !v.loading && v.err == nil {
		lines = append(lines,
			"Ask a question about the connected database, e.g.",
			StyleDimmed.Render("  how many waste management company we have in database"),
			"",
		)
	}

	for _, t := range turns {
		switch t.Role {
		case chat.RoleUser:
			lines = append(lines, StyleUser.Render("You: ")+t.Content, "")
		case chat.RoleAssistant:
			lines = append(lines, StyleAssistant.Render("AI:"))
			for _, line := range strings.Split(t.Content, "\n") {
				lines = append(lines, "  "+line)
			}
			lines = append(lines, "")
		}
	}

	if v.loading {
		lines = append(lines, StyleUser.Render("You: ")+v.pending, "")
		lines = append(lines, StyleWarning.Render("  ⏳ "+stateLabel(v.state)))
	}

	if v.err != nil {
		lines = append(lines, StyleError.Render("✗ "+errorText(v.err)), "")
	}

	if v.lastSQL != "" && !v.loading {
		lines = append(lines, StyleDimmed.Render("Last generated SQL:"))
		lines = append(lines, StyleSQLBlock.Render(highlightSQL(v.lastSQL)))
	}

	return lines
}

func (v *ChatView) View() string {
	prompt := StylePrompt.Render("Ask> ") + v.input
	if v.focused {
		prompt += "█"
	}
	if v.loading {
		prompt = StylePrompt.Render("Ask> ") + StyleDimmed.Render("waiting for answer...")
	}

	return lipgloss.JoinVertical(lipgloss.Left, prompt, "", v.viewport.Render())
}

// stateLabel describes a running cycle's stage for the status line.
func stateLabel(s chat.State) string {
	switch s {
	case chat.StateValidatingConnection:
		return "Checking connection..."
	case chat.StateSynthesizingQuery:
		return "Writing SQL..."
	case chat.StateExecuting:
		return "Running query..."
	case chat.StateSynthesizingResponse:
		return "Phrasing the answer..."
	case chat.StateAppending:
		return "Done"
	default:
		return "Thinking..."
	}
}

// errorText is the message shown for a failed cycle or connect. Causes
// pass through applog.Mask so DSN passwords and API keys never reach
// the screen.
func errorText(err error) string {
	switch chat.KindOf(err) {
	case chat.KindNoConnection:
		return "Please connect to database first."
	case chat.KindBusy:
		return "Still answering the previous question."
	}
	msg := applog.Mask(err.Error())
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
