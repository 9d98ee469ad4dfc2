// Package chat runs question cycles: connect once, then for each
// question describe the schema, synthesize SQL, execute it, and phrase
// the result as an answer.
//
// Design decisions:
//   - One Session per user session; no process-wide state.
//   - A cycle snapshots the active connection when it starts. Connecting
//     again mid-cycle swaps the active connection for later cycles and the
//     old one is closed when its last cycle finishes.
//   - At most one cycle runs at a time; a second Ask gets ErrBusy.
//   - The conversation log grows only on success, two turns at a time.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DachengChen/chatdb/ai"
	"github.com/DachengChen/chatdb/applog"
	"github.com/DachengChen/chatdb/config"
	"github.com/DachengChen/chatdb/db"
	"github.com/DachengChen/chatdb/metrics"
)

// Source is a live database connection.
type Source interface {
	DescribeSchema(ctx context.Context) (string, error)
	Execute(ctx context.Context, query string) (*db.QueryResult, error)
	Dialect() string
	Close() error
}

// Connector opens a Source for a validated descriptor.
type Connector func(ctx context.Context, desc config.Database) (Source, error)

// QueryWriter turns a question into SQL.
type QueryWriter interface {
	Synthesize(ctx context.Context, req ai.QueryRequest) (string, error)
}

// Answerer turns a query result into a natural-language answer.
type Answerer interface {
	Explain(ctx context.Context, req ai.AnswerRequest) (string, error)
}

// Dependencies are the collaborators of a Session.
type Dependencies struct {
	Connect Connector
	Queries QueryWriter
	Answers Answerer
	Logger  *slog.Logger
}

// Outcome is what a successful cycle produced.
type Outcome struct {
	CycleID  string
	Question string
	SQL      string
	Result   *db.QueryResult
	Answer   string
}

// handle is a connection plus the number of cycles using it.
type handle struct {
	src     Source
	desc    config.Database
	refs    int
	retired bool
}

// Session holds one user's connection and conversation log.
type Session struct {
	id     string
	deps   Dependencies
	logger *slog.Logger

	cycle sync.Mutex // held for the whole of Ask

	mu       sync.Mutex
	active   *handle
	turns    []Turn
	observer func(State)

	// only touched while cycle is held
	state      State
	stageStart time.Time
}

// NewSession creates a session with no connection and an empty log.
func NewSession(deps Dependencies) *Session {
	id := uuid.NewString()
	logger := deps.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	return &Session{
		id:     id,
		deps:   deps,
		logger: logger.With("session", id),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// OnStateChange registers fn to be called on every cycle state change.
// fn runs on the goroutine calling Ask and must not block.
func (s *Session) OnStateChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Connected returns the descriptor of the active connection.
func (s *Session) Connected() (config.Database, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return config.Database{}, false
	}
	return s.active.desc, true
}

// Log returns a copy of the conversation log.
func (s *Session) Log() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Connect validates desc, opens a connection and makes it the active one.
// On failure the previous connection, if any, stays active.
func (s *Session) Connect(ctx context.Context, desc config.Database) error {
	if err := desc.Validate(); err != nil {
		metrics.ObserveConnect(desc.Driver, false)
		s.logger.Warn("connect rejected", "target", desc.Address(), "error", err)
		return &Error{Kind: KindConnectionFailure, Err: err}
	}

	s.logger.Info("connecting", "target", desc.Address())
	src, err := s.deps.Connect(ctx, desc)
	if err != nil {
		metrics.ObserveConnect(desc.Driver, false)
		s.logger.Error("connect failed", "target", desc.Address(), "error", applog.MaskErr(err))
		return &Error{Kind: KindConnectionFailure, Err: err}
	}

	s.mu.Lock()
	old := s.active
	s.active = &handle{src: src, desc: desc}
	s.mu.Unlock()

	s.retire(old)
	metrics.ObserveConnect(desc.Driver, true)
	s.logger.Info("connected", "target", desc.Address(), "dialect", src.Dialect())
	return nil
}

// Schema describes the active connection's schema.
func (s *Session) Schema(ctx context.Context) (string, error) {
	h := s.acquire()
	if h == nil {
		return "", ErrNoConnection
	}
	defer s.release(h)
	return h.src.DescribeSchema(ctx)
}

// Ask runs one question cycle. On success the question and answer are
// appended to the log; on any failure the log is unchanged and the
// returned error is an *Error.
func (s *Session) Ask(ctx context.Context, question string) (Outcome, error) {
	if !s.cycle.TryLock() {
		return Outcome{}, ErrBusy
	}
	defer s.cycle.Unlock()

	out := Outcome{CycleID: uuid.NewString(), Question: question}
	logger := s.logger.With("cycle", out.CycleID)
	logger.Info("question", "text", question)

	s.enter(StateValidatingConnection)
	h := s.acquire()
	if h == nil {
		return Outcome{}, s.fail(logger, ErrNoConnection)
	}
	defer s.release(h)

	s.enter(StateSynthesizingQuery)
	schema, err := h.src.DescribeSchema(ctx)
	if err != nil {
		return Outcome{}, s.fail(logger, &Error{Kind: KindExecution, Stage: StateSynthesizingQuery, Err: fmt.Errorf("describe schema: %w", err)})
	}
	dialect := h.src.Dialect()
	out.SQL, err = s.deps.Queries.Synthesize(ctx, ai.QueryRequest{
		Question: question,
		Schema:   schema,
		Dialect:  dialect,
	})
	if err != nil {
		return Outcome{}, s.fail(logger, &Error{Kind: KindModelCall, Stage: StateSynthesizingQuery, Err: err})
	}
	logger.Info("query synthesized", "sql", out.SQL)

	s.enter(StateExecuting)
	out.Result, err = h.src.Execute(ctx, out.SQL)
	if err != nil {
		return Outcome{}, s.fail(logger, &Error{Kind: KindExecution, Stage: StateExecuting, Err: err})
	}
	rendered := out.Result.String()
	logger.Info("query executed", "rows", len(out.Result.Rows))

	s.enter(StateSynthesizingResponse)
	out.Answer, err = s.deps.Answers.Explain(ctx, ai.AnswerRequest{
		Question: question,
		Schema:   schema,
		Dialect:  dialect,
		SQL:      out.SQL,
		Result:   rendered,
	})
	if err != nil {
		return Outcome{}, s.fail(logger, &Error{Kind: KindModelCall, Stage: StateSynthesizingResponse, Err: err})
	}

	s.enter(StateAppending)
	s.mu.Lock()
	s.turns = append(s.turns,
		Turn{Role: RoleUser, Content: question},
		Turn{Role: RoleAssistant, Content: out.Answer},
	)
	s.mu.Unlock()

	s.enter(StateIdle)
	metrics.ObserveCycle("ok")
	logger.Info("answered")
	return out, nil
}

// Close closes the active connection. Cycles still running keep theirs
// until they finish.
func (s *Session) Close() error {
	s.mu.Lock()
	h := s.active
	s.active = nil
	s.mu.Unlock()
	return s.retire(h)
}

func (s *Session) fail(logger *slog.Logger, e *Error) *Error {
	s.enter(StateErrorVisible)
	metrics.ObserveCycle(e.Kind.String())
	logger.Warn("cycle failed", "kind", e.Kind.String(), "stage", e.Stage.String(), "error", applog.MaskErr(e))
	s.enter(StateIdle)
	return e
}

// enter moves the cycle to next, timing the stage being left.
func (s *Session) enter(next State) {
	now := time.Now()
	if s.state.Busy() {
		metrics.ObserveStage(s.state.String(), now.Sub(s.stageStart))
	}
	s.state = next
	s.stageStart = now
	s.logger.Debug("cycle state", "state", next.String())

	s.mu.Lock()
	fn := s.observer
	s.mu.Unlock()
	if fn != nil {
		fn(next)
	}
}

func (s *Session) acquire() *handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	s.active.refs++
	return s.active
}

func (s *Session) release(h *handle) {
	s.mu.Lock()
	h.refs--
	closeNow := h.retired && h.refs == 0
	s.mu.Unlock()
	if closeNow {
		s.closeHandle(h)
	}
}

// retire marks h as replaced and closes it once no cycle uses it.
func (s *Session) retire(h *handle) error {
	if h == nil {
		return nil
	}
	s.mu.Lock()
	h.retired = true
	closeNow := h.refs == 0
	s.mu.Unlock()
	if closeNow {
		return s.closeHandle(h)
	}
	return nil
}

func (s *Session) closeHandle(h *handle) error {
	err := h.src.Close()
	if err != nil {
		s.logger.Warn("close connection", "target", h.desc.Address(), "error", applog.MaskErr(err))
	} else {
		s.logger.Info("connection closed", "target", h.desc.Address())
	}
	return err
}
