package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendyze/internal/core"
	"spendyze/internal/markup"
	"spendyze/internal/model"
	"spendyze/internal/prompt"
)

type fakeResponder struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    []prompt.Payload
	started  chan struct{}
	release  chan struct{}
	honorCtx bool
}

func (f *fakeResponder) Respond(ctx context.Context, p prompt.Payload) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			if f.honorCtx {
				return "", ctx.Err()
			}
			<-f.release
		}
	}
	return f.reply, f.err
}

func (f *fakeResponder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSubmitSuccess(t *testing.T) {
	r := &fakeResponder{reply: "Spend **less** on food"}
	c := NewController(Config{Responder: r})

	require.True(t, c.Submit(context.Background(), "How do I save?"))

	st := c.State()
	require.Len(t, st.Messages, 2)
	assert.False(t, st.Pending)
	assert.Equal(t, Idle, st.Phase)
	assert.Equal(t, OutcomeSuccess, st.LastOutcome)

	user, reply := st.Messages[0], st.Messages[1]
	assert.Equal(t, User, user.Sender)
	assert.Equal(t, "How do I save?", user.RawText)
	assert.Equal(t, Assistant, reply.Sender)
	assert.Equal(t, "Spend **less** on food", reply.RawText)
	assert.Equal(t, []markup.Segment{
		{Kind: markup.Plain, Text: "Spend "},
		{Kind: markup.Emphasis, Text: "less"},
		{Kind: markup.Plain, Text: " on food"},
	}, reply.Segments)
	assert.NotEqual(t, user.ID, reply.ID)
}

func TestSubmitBlankQueryIsIgnored(t *testing.T) {
	r := &fakeResponder{reply: "x"}
	c := NewController(Config{Responder: r})
	c.SetInput("   ")

	assert.False(t, c.Send(context.Background()))
	assert.False(t, c.Submit(context.Background(), ""))
	assert.Empty(t, c.State().Messages)
	assert.Equal(t, "   ", c.Input())
	assert.Zero(t, r.callCount())
}

func TestSubmitFailureAppendsFallback(t *testing.T) {
	r := &fakeResponder{err: errors.New("boom")}
	c := NewController(Config{Responder: r})

	require.True(t, c.Submit(context.Background(), "hi"))
	st := c.State()
	require.Len(t, st.Messages, 2)
	assert.Equal(t, FallbackReply, st.Messages[1].RawText)
	assert.Equal(t, OutcomeFailure, st.LastOutcome)
	assert.False(t, st.Pending)

	// The controller stays usable after a failure.
	r.err = nil
	r.reply = "ok"
	require.True(t, c.Submit(context.Background(), "again"))
	assert.Len(t, c.State().Messages, 4)
}

func TestSubmitMissingCandidateText(t *testing.T) {
	text, err := model.ExtractText([]byte(`{}`))
	require.NoError(t, err)
	c := NewController(Config{Responder: &fakeResponder{reply: text}})

	require.True(t, c.Submit(context.Background(), "hi"))
	assert.Equal(t, "No response text found.", c.State().Messages[1].RawText)
}

func TestSubmitWhilePendingIsNoop(t *testing.T) {
	r := &fakeResponder{reply: "done", started: make(chan struct{}, 1), release: make(chan struct{})}
	c := NewController(Config{Responder: r})
	c.SetInput("first")

	done := make(chan bool)
	go func() { done <- c.Send(context.Background()) }()
	<-r.started

	// The user message is visible before the reply arrives.
	st := c.State()
	require.Len(t, st.Messages, 1)
	assert.Equal(t, User, st.Messages[0].Sender)
	assert.True(t, st.Pending)
	assert.Equal(t, Sending, st.Phase)
	assert.Empty(t, c.Input(), "input buffer is cleared on submit")

	assert.False(t, c.Submit(context.Background(), "second"))
	assert.Len(t, c.State().Messages, 1)

	close(r.release)
	assert.True(t, <-done)

	st = c.State()
	require.Len(t, st.Messages, 2)
	assert.Equal(t, "first", st.Messages[0].RawText)
	assert.Equal(t, "done", st.Messages[1].RawText)
	assert.Equal(t, 1, r.callCount())
}

func TestSubmitTimesOut(t *testing.T) {
	r := &fakeResponder{release: make(chan struct{}), honorCtx: true}
	defer close(r.release)
	c := NewController(Config{Responder: r, Timeout: 20 * time.Millisecond})

	require.True(t, c.Submit(context.Background(), "slow?"))
	st := c.State()
	require.Len(t, st.Messages, 2)
	assert.Equal(t, FallbackReply, st.Messages[1].RawText)
	assert.False(t, st.Pending)
}

func TestSubmitUsesSnapshot(t *testing.T) {
	snap := []core.TransactionRecord{
		{ID: 1, Type: core.Expense, Amount: decimal.RequireFromString("9.99"), Date: core.NewDate(2025, 2, 1), Category: "Food"},
	}
	r := &fakeResponder{reply: "ok"}
	c := NewController(Config{Responder: r, Snapshot: SnapshotFunc(func() []core.TransactionRecord { return snap })})

	require.True(t, c.Submit(context.Background(), "food?"))
	want, err := prompt.Build("food?", snap)
	require.NoError(t, err)
	assert.Equal(t, []prompt.Payload{want}, r.calls)
}

func TestResetDiscardsLateReply(t *testing.T) {
	r := &fakeResponder{reply: "late", started: make(chan struct{}, 1), release: make(chan struct{})}
	c := NewController(Config{Responder: r})

	done := make(chan bool)
	go func() { done <- c.Submit(context.Background(), "q") }()
	<-r.started

	c.Reset()
	close(r.release)
	<-done

	st := c.State()
	assert.Empty(t, st.Messages)
	assert.False(t, st.Pending)
}

func TestStateIsACopy(t *testing.T) {
	c := NewController(Config{Responder: &fakeResponder{reply: "a"}})
	require.True(t, c.Submit(context.Background(), "q"))

	st := c.State()
	st.Messages[0].RawText = "changed"
	assert.Equal(t, "q", c.State().Messages[0].RawText)
}
