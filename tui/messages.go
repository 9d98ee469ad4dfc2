// messages.go defines Bubble Tea messages used for async communication.
//
// Connecting and answering run in tea.Cmd goroutines and report back
// through these message types, so the UI never blocks.
package tui

import (
	"github.com/DachengChen/chatdb/chat"
	"github.com/DachengChen/chatdb/config"
)

// ConnectedMsg is sent when a database connection is established.
type ConnectedMsg struct {
	Desc config.Database
}

// ConnectErrorMsg is sent when a connection attempt fails.
type ConnectErrorMsg struct {
	Err error
}

// AnswerMsg is sent when a question cycle finishes.
type AnswerMsg struct {
	Outcome chat.Outcome
	Err     error
}

// StateMsg carries a cycle state change from the session.
type StateMsg chat.State
