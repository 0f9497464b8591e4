// Package chat implements the conversation state machine behind the AI
// consultation view.
//
// A Controller owns an append-only message log and allows at most one
// outstanding model request. The user's message is appended before the
// request is issued, so the log always reflects submission order.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendyze/internal/core"
	"spendyze/internal/markup"
	"spendyze/internal/prompt"
)

// FallbackReply is shown when the model request fails.
const FallbackReply = "Error or invalid response from the AI."

// DefaultTimeout bounds a single exchange.
const DefaultTimeout = 60 * time.Second

type Sender string

const (
	User      Sender = "user"
	Assistant Sender = "assistant"
)

// Phase is the controller's state.
type Phase string

const (
	Idle    Phase = "idle"
	Sending Phase = "sending"
)

// Outcome records how the last exchange settled.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Message is immutable once appended. Segments are parsed from RawText
// exactly once, at creation.
type Message struct {
	ID        string
	Sender    Sender
	RawText   string
	Segments  []markup.Segment
	CreatedAt time.Time
}

// State is a copy of the conversation.
type State struct {
	Messages    []Message
	Pending     bool
	Phase       Phase
	LastOutcome Outcome
}

// Responder sends a prompt to the language model.
type Responder interface {
	Respond(ctx context.Context, payload prompt.Payload) (string, error)
}

// SnapshotSource provides the current transaction snapshot.
type SnapshotSource interface {
	Snapshot() []core.TransactionRecord
}

// SnapshotFunc adapts a function to SnapshotSource.
type SnapshotFunc func() []core.TransactionRecord

func (f SnapshotFunc) Snapshot() []core.TransactionRecord { return f() }

// Controller is safe for concurrent use.
type Controller struct {
	responder Responder
	snapshot  SnapshotSource
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu          sync.Mutex
	messages    []Message
	pending     bool
	input       string
	lastOutcome Outcome
	// generation changes on Reset so late replies are not appended to a
	// log that no longer holds their question.
	generation int
}

// Config holds controller dependencies.
type Config struct {
	Responder Responder
	Snapshot  SnapshotSource
	// Timeout bounds one exchange; zero means DefaultTimeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewController(cfg Config) *Controller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Snapshot == nil {
		cfg.Snapshot = SnapshotFunc(func() []core.TransactionRecord { return nil })
	}
	return &Controller{
		responder: cfg.Responder,
		snapshot:  cfg.Snapshot,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// SetInput replaces the input buffer.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

// Input returns the input buffer.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Send submits the current input buffer.
func (c *Controller) Send(ctx context.Context) bool {
	return c.Submit(ctx, c.Input())
}

// Submit runs one exchange and reports whether it was accepted. A blank
// query, or any query while another exchange is in flight, is ignored
// without changing state. Submit blocks until the exchange settles; the
// user message is visible to State callers from the moment it is accepted.
func (c *Controller) Submit(ctx context.Context, query string) bool {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "Submit ignored while a request is pending")
		return false
	}
	payload, err := prompt.Build(query, c.snapshot.Snapshot())
	if err != nil {
		c.mu.Unlock()
		if !errors.Is(err, prompt.ErrEmptyQuery) {
			c.logger.ErrorContext(ctx, "Failed to build prompt", "error", err)
		}
		return false
	}
	c.messages = append(c.messages, c.newMessage(User, query))
	c.input = ""
	c.pending = true
	generation := c.generation
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Chat exchange started", "query_length", len(query))
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	text, err := c.respond(reqCtx, payload)
	cancel()

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
		text = FallbackReply
		c.logger.WarnContext(ctx, "Chat exchange failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
	}

	c.mu.Lock()
	if generation == c.generation {
		c.messages = append(c.messages, c.newMessage(Assistant, text))
		c.lastOutcome = outcome
	}
	c.pending = false
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Chat exchange settled", "outcome", outcome, "duration_ms", time.Since(start).Milliseconds())
	return true
}

func (c *Controller) respond(ctx context.Context, payload prompt.Payload) (string, error) {
	if c.responder == nil {
		return "", errors.New("no model responder configured")
	}
	return c.responder.Respond(ctx, payload)
}

// newMessage must be called with c.mu held.
func (c *Controller) newMessage(sender Sender, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		RawText:   text,
		Segments:  markup.Parse(text),
		CreatedAt: c.now(),
	}
}

// State returns a copy of the conversation.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]Message, len(c.messages))
	copy(msgs, c.messages)
	phase := Idle
	if c.pending {
		phase = Sending
	}
	return State{Messages: msgs, Pending: c.pending, Phase: phase, LastOutcome: c.lastOutcome}
}

// Pending reports whether an exchange is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Reset drops the log and the input buffer. The reply of an in-flight
// exchange is discarded when it settles.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.generation++
	c.messages = nil
	c.input = ""
	c.lastOutcome = OutcomeNone
	c.mu.Unlock()
}
