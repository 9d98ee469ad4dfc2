package chat

import "errors"

// Kind classifies why a cycle or a connection attempt failed.
type Kind int

const (
	KindNoConnection Kind = iota + 1
	KindConnectionFailure
	KindModelCall
	KindExecution
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindNoConnection:
		return "no_connection"
	case KindConnectionFailure:
		return "connection_failure"
	case KindModelCall:
		return "model_call"
	case KindExecution:
		return "execution"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Error is returned by Session.Connect and Session.Ask. Stage is the
// cycle state the failure happened in.
type Error struct {
	Kind  Kind
	Stage State
	Err   error
}

var (
	// ErrNoConnection is returned by Ask before any connection succeeded.
	ErrNoConnection = &Error{Kind: KindNoConnection, Stage: StateValidatingConnection}
	// ErrBusy is returned by Ask while another cycle runs.
	ErrBusy = &Error{Kind: KindBusy, Stage: StateIdle}
)

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindNoConnection:
		msg = "please connect to database first"
	case KindConnectionFailure:
		msg = "connect to database"
	case KindModelCall:
		msg = "language model call failed"
	case KindExecution:
		msg = "query failed"
	case KindBusy:
		msg = "still answering the previous question"
	default:
		msg = "chat error"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind that carries no cause, so
// errors.Is(err, ErrNoConnection) works for every no-connection error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of a chat error, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
