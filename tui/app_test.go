package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DachengChen/chatdb/chat"
	"github.com/DachengChen/chatdb/config"
	"github.com/DachengChen/chatdb/db"
)

type fakeChatter struct {
	connectErr error
	connected  []config.Database
	questions  []string
	outcome    chat.Outcome
	askErr     error
	turns      []chat.Turn
}

func (f *fakeChatter) Connect(_ context.Context, desc config.Database) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = append(f.connected, desc)
	return nil
}

func (f *fakeChatter) Ask(_ context.Context, question string) (chat.Outcome, error) {
	f.questions = append(f.questions, question)
	if f.askErr != nil {
		return chat.Outcome{}, f.askErr
	}
	f.turns = append(f.turns,
		chat.Turn{Role: chat.RoleUser, Content: question},
		chat.Turn{Role: chat.RoleAssistant, Content: f.outcome.Answer},
	)
	return f.outcome, nil
}

func (f *fakeChatter) Log() []chat.Turn { return f.turns }

func (f *fakeChatter) Connected() (config.Database, bool) {
	if len(f.connected) == 0 {
		return config.Database{}, false
	}
	return f.connected[len(f.connected)-1], true
}

func newTestApp(f *fakeChatter) *App {
	a := NewApp(context.Background(), f, Options{Prefill: config.Default().Database, Provider: "placeholder"})
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return a
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run feeds cmd's message back into the app, the way the Bubble Tea
// runtime would.
func run(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	a.Update(cmd())
}

func TestConnectFormSubmitsDescriptor(t *testing.T) {
	f := &fakeChatter{}
	a := newTestApp(f)
	form := a.panes[PaneConnect].(*ConnectView)

	// Host is focused first; move down to the button.
	for form.focusField != fieldConnect {
		a.Update(key("down"))
	}
	_, cmd := a.Update(key("enter"))
	run(t, a, cmd)

	require.Len(t, f.connected, 1)
	assert.Equal(t, config.Database{
		Driver:     "mysql",
		Host:       "localhost",
		Port:       3306,
		User:       "root",
		Name:       "manajemensampah",
		SSLMode:    "disable",
		SampleRows: 3,
	}, f.connected[0])
	assert.Contains(t, form.View(), "Database connected")
	assert.Equal(t, PaneChat, a.Focus(), "focus moves to the chat after connecting")
}

func TestConnectFormShowsError(t *testing.T) {
	f := &fakeChatter{connectErr: &chat.Error{
		Kind: chat.KindConnectionFailure,
		Err:  errors.New("mysql ping: Error 1045: Access denied for user 'root'@'localhost' (using password: YES)"),
	}}
	a := newTestApp(f)
	form := a.panes[PaneConnect].(*ConnectView)

	form.focusField = fieldConnect
	_, cmd := a.Update(key("enter"))
	run(t, a, cmd)

	assert.Contains(t, form.View(), "1045")
	assert.NotContains(t, form.View(), "Database connected")
	assert.Equal(t, PaneConnect, a.Focus())
}

func TestConnectFormRejectsBadPort(t *testing.T) {
	f := &fakeChatter{}
	form := NewConnectView(context.Background(), f, config.Default().Database)
	form.fields[fieldPort] = "33o6"

	form.focusField = fieldConnect
	_, cmd := form.Update(key("enter"))

	assert.Nil(t, cmd)
	assert.Empty(t, f.connected)
	require.Error(t, form.err)
	assert.Contains(t, form.err.Error(), "not a number")
}

func TestConnectFormEditing(t *testing.T) {
	form := NewConnectView(context.Background(), &fakeChatter{}, config.Default().Database)
	form.SetFocused(true)
	form.focusField = fieldDatabase

	form.Update(key("enter"))
	require.True(t, form.editing)
	for range "manajemensampah" {
		form.Update(key("backspace"))
	}
	form.Update(key("shop"))
	form.Update(key("enter"))

	assert.False(t, form.editing)
	desc, err := form.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, "shop", desc.Name)
}

func TestConnectFormMasksPassword(t *testing.T) {
	prefill := config.Default().Database
	prefill.Password = "hunter2"
	form := NewConnectView(context.Background(), &fakeChatter{}, prefill)
	form.SetSize(40, 20)

	out := form.View()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, strings.Repeat("•", 7))
}

func TestCycleDriverSwitchesDefaultPort(t *testing.T) {
	form := NewConnectView(context.Background(), &fakeChatter{}, config.Default().Database)
	form.focusField = fieldDriver

	form.Update(key("right"))
	assert.Equal(t, config.DriverPostgres, form.fields[fieldDriver])
	assert.Equal(t, "5432", form.fields[fieldPort])

	form.fields[fieldPort] = "6543"
	form.Update(key("right"))
	assert.Equal(t, config.DriverSQLite, form.fields[fieldDriver])
	assert.Equal(t, "6543", form.fields[fieldPort], "custom port kept")

	// sqlite hides the network fields
	form.Update(key("down"))
	assert.Equal(t, fieldDatabase, form.focusField)

	desc, err := form.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, config.DriverSQLite, desc.Driver)
	assert.Empty(t, desc.Host)
	assert.Zero(t, desc.Port)
}

func TestChatAsksAndRendersAnswer(t *testing.T) {
	f := &fakeChatter{outcome: chat.Outcome{
		SQL:    "SELECT COUNT(*) FROM PERUSAHAAN_LIMBAH;",
		Result: &db.QueryResult{Columns: []string{"COUNT(*)"}, Rows: [][]any{{int64(10)}}},
		Answer: "We have 10 waste management companies in the database.",
	}}
	a := newTestApp(f)
	a.Update(key("tab"))
	require.Equal(t, PaneChat, a.Focus())

	a.Update(key("how many companies"))
	_, cmd := a.Update(key("enter"))

	view := a.panes[PaneChat].(*ChatView)
	assert.True(t, view.loading)
	a.Update(key("ignored while loading"))
	assert.Empty(t, view.input, "input is locked during a cycle")

	a.Update(StateMsg(chat.StateExecuting))
	assert.Contains(t, view.View(), "Running query...")

	run(t, a, cmd)

	assert.Equal(t, []string{"how many companies"}, f.questions)
	assert.False(t, view.loading)
	out := view.View()
	assert.Contains(t, out, "You: how many companies")
	assert.Contains(t, out, "We have 10 waste management companies in the database.")
	assert.Contains(t, out, "Last generated SQL:")
	assert.Contains(t, out, "PERUSAHAAN_LIMBAH")
}

func TestChatShowsCycleErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no connection", chat.ErrNoConnection, "Please connect to database first."},
		{"busy", chat.ErrBusy, "Still answering the previous question."},
		{"execution", &chat.Error{Kind: chat.KindExecution, Err: errors.New("no such table: missing")}, "Query failed: no such table: missing"},
		{"masked", &chat.Error{Kind: chat.KindModelCall, Err: errors.New("bad key sk-abcdefghijklmnopqrstuvwx")}, "sk-***"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeChatter{askErr: tt.err}
			a := newTestApp(f)
			a.Update(key("tab"))
			a.Update(key("q"))
			_, cmd := a.Update(key("enter"))
			run(t, a, cmd)

			out := a.panes[PaneChat].View()
			assert.Contains(t, out, tt.want)
			assert.Empty(t, f.turns)
		})
	}
}

func TestChatIgnoresBlankQuestion(t *testing.T) {
	f := &fakeChatter{}
	a := newTestApp(f)
	a.Update(key("tab"))
	a.Update(key("   "))
	_, cmd := a.Update(key("enter"))
	assert.Nil(t, cmd)
	assert.Empty(t, f.questions)
}

func TestHeaderShowsConnection(t *testing.T) {
	f := &fakeChatter{}
	a := newTestApp(f)
	assert.Contains(t, a.View(), "not connected")

	f.connected = append(f.connected, config.Default().Database)
	assert.Contains(t, a.View(), "mysql://root@localhost:3306/manajemensampah")
}

func TestHighlightSQL(t *testing.T) {
	out := highlightSQL("SELECT COUNT(*) FROM perusahaan_limbah;")
	assert.Contains(t, out, "SELECT")
	assert.Contains(t, out, "perusahaan_limbah")
	assert.Contains(t, out, "\x1b[", "coloured for the terminal")
}

func TestViewportScrolls(t *testing.T) {
	v := NewViewport(20, 3)
	v.SetContentLines([]string{"one", "two", "three", "four", "five"})

	assert.True(t, strings.HasPrefix(v.Render(), "one"))
	v.End()
	assert.True(t, v.AtBottom())
	assert.True(t, strings.HasPrefix(v.Render(), "three"))
	v.PageUp()
	assert.True(t, strings.HasPrefix(v.Render(), "one"))
}
