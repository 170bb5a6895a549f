// Package chat implements the chat session controller: the ordered message
// history of one conversation, the pending input, and the gate that keeps at
// most one request in flight.
//
// A turn is a two-phase transition. Begin appends the user message and marks
// the session as awaiting a response; Complete appends the assistant reply (or
// the fallback message when the request failed) and always clears the flag.
//
//	sess := chat.NewSession(client)
//	reply, err := sess.Submit(ctx, "What is GFR Rule 21?")
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FallbackReply replaces the assistant reply of a failed turn
const FallbackReply = "Sorry, I encountered an error. Please try again."

// ClearPrompt is the question asked before the history is cleared
const ClearPrompt = "Are you sure you want to clear the chat history?"

var (
	// ErrEmptyInput is returned when the submitted text is blank
	ErrEmptyInput = errors.New("message is empty")
	// ErrAwaiting is returned when a turn is submitted while another is in flight
	ErrAwaiting = errors.New("still waiting for the previous response")
	// ErrEmptyHistory is returned by Clear and Export when there are no messages
	ErrEmptyHistory = errors.New("no messages in this conversation")
)

// Backend sends one turn to the assistant.
type Backend interface {
	Chat(ctx context.Context, req Request) (*Reply, error)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts an ordinary function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f(prompt).
func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Turn is a user submission whose reply has not been merged yet.
type Turn struct {
	Request    Request
	seq        uint64
	generation uint64
}

// Session owns the state of one conversation. It is safe for concurrent use.
type Session struct {
	id      string
	backend Backend
	logger  *zap.Logger

	mu         sync.Mutex
	messages   []Message
	input      string
	awaiting   bool
	seq        uint64 // number of the last turn begun
	inflight   uint64 // seq of the turn being awaited, 0 when idle
	revision   uint64
	generation uint64 // bumped by Clear; replies to older turns are dropped
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used to record failed turns.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates an empty session that sends its turns to backend.
func NewSession(backend Backend, opts ...Option) *Session {
	s := &Session{
		id:      uuid.New().String(),
		backend: backend,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session", s.GetShortID()))
	return s
}

// ID returns the session identifier (UUID v4)
func (s *Session) ID() string {
	return s.id
}

// GetShortID returns the first 8 characters of the session ID
func (s *Session) GetShortID() string {
	if len(s.id) >= 8 {
		return s.id[:8]
	}
	return s.id
}

// SetInput replaces the pending input buffer.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
}

// Input returns the pending input buffer.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Awaiting reports whether a turn is in flight.
func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// Revision increases every time the history changes.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Len returns the number of messages in the history.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Messages returns a copy of the history in conversation order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessages(s.messages)
}

// Begin starts a turn: it appends the user message, clears the input buffer
// and marks the session as awaiting. The returned Turn carries the request
// with the history as it was before this message.
func (s *Session) Begin(text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.awaiting {
		return nil, ErrAwaiting
	}

	history := cloneMessages(s.messages)
	s.appendLocked(Message{Role: RoleUser, Content: text})
	s.input = ""
	s.awaiting = true
	s.seq++
	s.inflight = s.seq

	return &Turn{
		Request:    Request{Message: text, History: history},
		seq:        s.seq,
		generation: s.generation,
	}, nil
}

// Send performs the network phase of a turn. It does not touch session state.
func (s *Session) Send(ctx context.Context, turn *Turn) (*Reply, error) {
	return s.backend.Chat(ctx, turn.Request)
}

// Complete finishes a turn. A nil err appends the reply; any error appends
// FallbackReply instead and is only logged. The awaiting flag is always
// cleared. If the history was cleared after the turn began, the reply is
// dropped. Completing a turn that is not the one in flight (for example a
// second time) drops the reply and leaves the session untouched.
func (s *Session) Complete(turn *Turn, reply *Reply, err error) Message {
	if err == nil && reply == nil {
		err = errors.New("empty reply")
	}

	msg := Message{Role: RoleAssistant, Content: FallbackReply}
	if err != nil {
		s.logger.Warn("Chat request failed", zap.Error(err))
	} else {
		msg.Content = reply.Response
		if len(reply.Citations) > 0 {
			msg.Citations = append([]Citation(nil), reply.Citations...)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.awaiting || turn.seq != s.inflight {
		s.logger.Debug("Dropping reply to a turn that is not in flight")
		return msg
	}
	s.awaiting = false
	s.inflight = 0
	if turn.generation != s.generation {
		s.logger.Debug("Dropping reply to a cleared conversation")
		return msg
	}
	s.appendLocked(msg)
	return msg
}

// Submit runs a whole turn and returns the assistant message that was
// appended. The only errors are ErrEmptyInput and ErrAwaiting; request
// failures become FallbackReply.
func (s *Session) Submit(ctx context.Context, text string) (msg Message, err error) {
	turn, err := s.Begin(text)
	if err != nil {
		return Message{}, err
	}

	var (
		reply   *Reply
		sendErr error
	)
	defer func() {
		msg = s.Complete(turn, reply, sendErr)
	}()

	reply, sendErr = s.Send(ctx, turn)
	return msg, nil
}

// SubmitInput submits the pending input buffer.
func (s *Session) SubmitInput(ctx context.Context) (Message, error) {
	return s.Submit(ctx, s.Input())
}

// Clear empties the history after c approves ClearPrompt. It reports whether
// the history was cleared.
func (s *Session) Clear(c Confirmer) (bool, error) {
	if s.Len() == 0 {
		return false, ErrEmptyHistory
	}
	if !c.Confirm(ClearPrompt) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.generation++
	s.revision++
	return true, nil
}

// Export writes the history to w as an indented JSON array.
func (s *Session) Export(w io.Writer) error {
	messages := s.Messages()
	if len(messages) == 0 {
		return ErrEmptyHistory
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(messages)
}

func (s *Session) appendLocked(msg Message) {
	s.messages = append(s.messages, msg)
	s.revision++
}

func cloneMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = m
		if m.Citations != nil {
			out[i].Citations = append([]Citation(nil), m.Citations...)
		}
	}
	return out
}
