package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DachengChen/chatdb/chat"
)

// Start runs the TUI for session until the user quits or ctx is
// cancelled. Cancellation is a normal exit.
func Start(ctx context.Context, session *chat.Session, opts Options) error {
	app := NewApp(ctx, session, opts)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	session.OnStateChange(func(s chat.State) {
		p.Send(StateMsg(s))
	})
	defer session.OnStateChange(nil)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
