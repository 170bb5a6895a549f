package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeBackend records requests and answers with a fixed reply or error
type fakeBackend struct {
	mu       sync.Mutex
	requests []Request
	reply    *Reply
	err      error
	block    chan struct{} // when set, Chat waits for it to be closed
	started  chan struct{}
}

func (f *fakeBackend) Chat(ctx context.Context, req Request) (*Reply, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.reply, f.err
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestSubmit_Success(t *testing.T) {
	backend := &fakeBackend{reply: &Reply{
		Response: "Rule 21 covers...",
		Citations: []Citation{
			{RuleNumber: "21", Text: "...", Source: "GFR 2017", Page: 14},
		},
	}}
	sess := NewSession(backend)

	msg, err := sess.Submit(context.Background(), "What is GFR Rule 21?")
	require.NoError(t, err)

	want := []Message{
		{Role: RoleUser, Content: "What is GFR Rule 21?"},
		{Role: RoleAssistant, Content: "Rule 21 covers...", Citations: []Citation{
			{RuleNumber: "21", Text: "...", Source: "GFR 2017", Page: 14},
		}},
	}
	if diff := cmp.Diff(want, sess.Messages()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want[1], msg)
	assert.Equal(t, 14, msg.Citations[0].Page)
	assert.False(t, sess.Awaiting())
}

func TestSubmit_Failure(t *testing.T) {
	backend := &fakeBackend{err: errors.New("dial tcp: connection refused")}
	sess := NewSession(backend)

	msg, err := sess.Submit(context.Background(), "What is GFR Rule 21?")
	require.NoError(t, err)

	messages := sess.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, RoleUser, messages[0].Role)
	assert.Equal(t, RoleAssistant, messages[1].Role)
	assert.Equal(t, FallbackReply, messages[1].Content)
	assert.Empty(t, messages[1].Citations)
	assert.Equal(t, messages[1], msg)
	assert.False(t, sess.Awaiting(), "awaiting flag must be cleared after a failure")

	// The session stays usable after a failed turn.
	backend.err = nil
	backend.reply = &Reply{Response: "ok"}
	_, err = sess.Submit(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, 4, sess.Len())
}

func TestSubmit_NilReplyIsFailure(t *testing.T) {
	sess := NewSession(&fakeBackend{})

	msg, err := sess.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, msg.Content)
}

func TestSubmit_BlankInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "spaces", input: "   "},
		{name: "tabs and newlines", input: "\t\n  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{reply: &Reply{Response: "x"}}
			sess := NewSession(backend)

			_, err := sess.Submit(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrEmptyInput)
			assert.Zero(t, sess.Len())
			assert.Zero(t, sess.Revision())
			assert.Zero(t, backend.calls())
		})
	}
}

func TestSubmit_TrimsInput(t *testing.T) {
	backend := &fakeBackend{reply: &Reply{Response: "x"}}
	sess := NewSession(backend)

	_, err := sess.Submit(context.Background(), "  hello  \n")
	require.NoError(t, err)
	assert.Equal(t, "hello", sess.Messages()[0].Content)
	assert.Equal(t, "hello", backend.requests[0].Message)
}

func TestSubmit_WhileAwaiting(t *testing.T) {
	backend := &fakeBackend{
		reply:   &Reply{Response: "first"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	sess := NewSession(backend)

	done := make(chan error, 1)
	go func() {
		_, err := sess.Submit(context.Background(), "first")
		done <- err
	}()
	<-backend.started

	assert.True(t, sess.Awaiting())
	_, err := sess.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrAwaiting)
	assert.Equal(t, 1, sess.Len(), "only the optimistic user message is present")

	close(backend.block)
	require.NoError(t, <-done)

	assert.Equal(t, 1, backend.calls())
	assert.Equal(t, 2, sess.Len())
	assert.False(t, sess.Awaiting())
}

func TestSubmit_ConcurrentCallersSendOnce(t *testing.T) {
	backend := &fakeBackend{reply: &Reply{Response: "ok"}, block: make(chan struct{})}
	sess := NewSession(backend)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
		rejected atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sess.Submit(context.Background(), "question")
			if errors.Is(err, ErrAwaiting) {
				rejected.Add(1)
				return
			}
			accepted.Add(1)
		}()
	}

	// Let the rejected callers return before unblocking the accepted one.
	for rejected.Load() < 7 {
		runtime.Gosched()
	}
	close(backend.block)
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Equal(t, 1, backend.calls())
	assert.Equal(t, 2, sess.Len())
}

func TestBegin_HistoryExcludesNewMessage(t *testing.T) {
	backend := &fakeBackend{reply: &Reply{Response: "a1"}}
	sess := NewSession(backend)

	_, err := sess.Submit(context.Background(), "q1")
	require.NoError(t, err)

	turn, err := sess.Begin("q2")
	require.NoError(t, err)

	assert.Equal(t, "q2", turn.Request.Message)
	want := []Message{
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
	}
	if diff := cmp.Diff(want, turn.Request.History); diff != "" {
		t.Errorf("request history mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, sess.Len(), "user message is appended optimistically")
	assert.True(t, sess.Awaiting())

	sess.Complete(turn, &Reply{Response: "a2"}, nil)
	assert.Equal(t, 4, sess.Len())
}

func TestBegin_FirstTurnSendsEmptyHistoryArray(t *testing.T) {
	sess := NewSession(&fakeBackend{})

	turn, err := sess.Begin("hello")
	require.NoError(t, err)

	data, err := json.Marshal(turn.Request)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"hello","history":[]}`, string(data))
}

func TestBegin_ClearsInputBuffer(t *testing.T) {
	sess := NewSession(&fakeBackend{reply: &Reply{Response: "ok"}})
	sess.SetInput("  what is rule 21? ")

	msg, err := sess.SubmitInput(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
	assert.Equal(t, "", sess.Input())
	assert.Equal(t, "what is rule 21?", sess.Messages()[0].Content)
}

func TestSubmitInput_BlankKeepsBuffer(t *testing.T) {
	sess := NewSession(&fakeBackend{})
	sess.SetInput("   ")

	_, err := sess.SubmitInput(context.Background())
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, "   ", sess.Input())
}

func TestClear(t *testing.T) {
	tests := []struct {
		name        string
		answer      bool
		wantCleared bool
		wantLen     int
	}{
		{name: "confirmed", answer: true, wantCleared: true, wantLen: 0},
		{name: "rejected", answer: false, wantCleared: false, wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := NewSession(&fakeBackend{reply: &Reply{Response: "a"}})
			_, err := sess.Submit(context.Background(), "q")
			require.NoError(t, err)
			before := sess.Messages()

			var asked string
			cleared, err := sess.Clear(ConfirmFunc(func(prompt string) bool {
				asked = prompt
				return tt.answer
			}))
			require.NoError(t, err)

			assert.Equal(t, ClearPrompt, asked)
			assert.Equal(t, tt.wantCleared, cleared)
			assert.Equal(t, tt.wantLen, sess.Len())
			if !tt.wantCleared {
				assert.Equal(t, before, sess.Messages())
			}
		})
	}
}

func TestClear_EmptyHistoryDoesNotAsk(t *testing.T) {
	sess := NewSession(&fakeBackend{})

	asked := false
	cleared, err := sess.Clear(ConfirmFunc(func(string) bool {
		asked = true
		return true
	}))

	assert.ErrorIs(t, err, ErrEmptyHistory)
	assert.False(t, cleared)
	assert.False(t, asked)
}

func TestComplete_StaleTurnAfterClear(t *testing.T) {
	sess := NewSession(&fakeBackend{})

	turn, err := sess.Begin("q")
	require.NoError(t, err)

	cleared, err := sess.Clear(ConfirmFunc(func(string) bool { return true }))
	require.NoError(t, err)
	require.True(t, cleared)
	assert.True(t, sess.Awaiting(), "clearing does not abort the request in flight")

	sess.Complete(turn, &Reply{Response: "late"}, nil)
	assert.Zero(t, sess.Len())
	assert.False(t, sess.Awaiting())

	_, err = sess.Begin("next")
	assert.NoError(t, err)
}

func TestComplete_TwiceDoesNotReleaseNextTurn(t *testing.T) {
	sess := NewSession(&fakeBackend{})

	first, err := sess.Begin("q1")
	require.NoError(t, err)
	sess.Complete(first, &Reply{Response: "a1"}, nil)

	second, err := sess.Begin("q2")
	require.NoError(t, err)

	// A repeated completion of the finished turn is ignored
	sess.Complete(first, &Reply{Response: "a1 again"}, nil)
	assert.True(t, sess.Awaiting())
	assert.Equal(t, 3, sess.Len())

	_, err = sess.Begin("q3")
	assert.ErrorIs(t, err, ErrAwaiting)

	sess.Complete(second, &Reply{Response: "a2"}, nil)
	assert.False(t, sess.Awaiting())

	var contents []string
	for _, msg := range sess.Messages() {
		contents = append(contents, msg.Content)
	}
	assert.Equal(t, []string{"q1", "a1", "q2", "a2"}, contents)

	sess.Complete(second, nil, errors.New("late failure"))
	assert.Equal(t, 4, sess.Len())
	assert.False(t, sess.Awaiting())
}

func TestExport(t *testing.T) {
	backend := &fakeBackend{reply: &Reply{
		Response:  "Rule 21 covers <b>standards</b> & more",
		Citations: []Citation{{RuleNumber: "21", Text: "excerpt", Source: "GFR 2017", Page: 14}},
	}}
	sess := NewSession(backend)
	_, err := sess.Submit(context.Background(), "What is GFR Rule 21?")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sess.Export(&buf))

	var got []Message
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	if diff := cmp.Diff(sess.Messages(), got); diff != "" {
		t.Errorf("exported history mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, buf.String(), "<b>standards</b> & more")
	assert.Contains(t, buf.String(), "\n  {\n    \"role\": \"user\"")
	assert.NotContains(t, buf.String(), `"citations": null`)
	assert.Equal(t, 2, sess.Len(), "export does not change the session")
}

func TestExport_EmptyHistory(t *testing.T) {
	sess := NewSession(&fakeBackend{})

	var buf bytes.Buffer
	assert.ErrorIs(t, sess.Export(&buf), ErrEmptyHistory)
	assert.Zero(t, buf.Len())
}

func TestRevision(t *testing.T) {
	sess := NewSession(&fakeBackend{reply: &Reply{Response: "a"}})
	assert.Zero(t, sess.Revision())

	turn, err := sess.Begin("q")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sess.Revision())

	sess.Complete(turn, &Reply{Response: "a"}, nil)
	assert.Equal(t, uint64(2), sess.Revision())

	_, err = sess.Clear(ConfirmFunc(func(string) bool { return true }))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), sess.Revision())
}

func TestMessages_ReturnsCopy(t *testing.T) {
	sess := NewSession(&fakeBackend{reply: &Reply{
		Response:  "a",
		Citations: []Citation{{RuleNumber: "1", Page: 1}},
	}})
	_, err := sess.Submit(context.Background(), "q")
	require.NoError(t, err)

	messages := sess.Messages()
	messages[0].Content = "changed"
	messages[1].Citations[0].Page = 99

	fresh := sess.Messages()
	assert.Equal(t, "q", fresh[0].Content)
	assert.Equal(t, 1, fresh[1].Citations[0].Page)
}

func TestGetShortID(t *testing.T) {
	sess := NewSession(&fakeBackend{})
	assert.Len(t, sess.ID(), 36)
	assert.Equal(t, sess.ID()[:8], sess.GetShortID())
}
