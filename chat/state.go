package chat

// State is the stage a question cycle is in.
//
//	Idle → ValidatingConnection → SynthesizingQuery → Executing →
//	SynthesizingResponse → Appending → Idle
//
// Any failure moves to ErrorVisible and then back to Idle.
type State int

const (
	StateIdle State = iota
	StateValidatingConnection
	StateSynthesizingQuery
	StateExecuting
	StateSynthesizingResponse
	StateAppending
	StateErrorVisible
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateValidatingConnection:
		return "ValidatingConnection"
	case StateSynthesizingQuery:
		return "SynthesizingQuery"
	case StateExecuting:
		return "Executing"
	case StateSynthesizingResponse:
		return "SynthesizingResponse"
	case StateAppending:
		return "Appending"
	case StateErrorVisible:
		return "ErrorVisible"
	default:
		return "Unknown"
	}
}

// Busy reports whether a cycle is in progress in this state.
func (s State) Busy() bool {
	return s != StateIdle && s != StateErrorVisible
}
