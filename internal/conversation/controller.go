// ABOUTME: Conversation controller owning the message log and the single-flight send/retry machine
// ABOUTME: Every logical send ends in exactly one assistant message, after at most one retry

package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389/coven-chat/internal/chatapi"
)

// ChatAPI is what the controller needs from the backend client.
type ChatAPI interface {
	Chat(ctx context.Context, req chatapi.Request) (string, error)
}

// Outcome is how a logical send (request plus optional retry) ended.
type Outcome int

const (
	// OutcomeNone means nothing was sent (blank input).
	OutcomeNone Outcome = iota
	// OutcomeReplied means a usable reply was shown.
	OutcomeReplied
	// OutcomeSkipped means the single retry was exhausted and a skip message was shown.
	OutcomeSkipped
	// OutcomeFailed means a non-retryable error was shown.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReplied:
		return "replied"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

// Options configures a Controller.
type Options struct {
	ClientID string
	Language string

	// SmartQuestionMarks applies SplitQuestions to user-typed input.
	SmartQuestionMarks bool

	RetryDelay time.Duration
	BatchDelay time.Duration

	// Online reports connectivity; used to pick the offline message for
	// non-retryable errors. Nil means always online.
	Online func(ctx context.Context) bool
}

// Controller is the one object holding a chat session's state. It is safe
// for concurrent use; at most one request is in flight at any time.
type Controller struct {
	api         ChatAPI
	opts        Options
	log         Log
	broadcaster *ChangeBroadcaster
	logger      *slog.Logger

	busy atomic.Bool

	batchMu sync.Mutex
	batch   *batchJob
}

// NewController creates a Controller. Pass nil logger for default.
func NewController(api ChatAPI, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		api:         api,
		opts:        opts,
		broadcaster: NewChangeBroadcaster(logger),
		logger:      logger.With("component", "conversation"),
	}
}

// Messages returns a snapshot of the conversation log.
func (c *Controller) Messages() []Message {
	return c.log.Snapshot()
}

// Subscribe returns a channel that is signalled after every log change.
func (c *Controller) Subscribe(ctx context.Context) <-chan struct{} {
	ch, _ := c.broadcaster.Subscribe(ctx)
	return ch
}

// Busy reports whether a send or batch is in progress.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Close releases subscribers.
func (c *Controller) Close() {
	c.broadcaster.Close()
}

// Send submits user-typed text. Blank input is a no-op returning OutcomeNone.
// ErrBusy is returned when another send or a batch is active; any other
// failure is reported in the conversation, not as an error.
func (c *Controller) Send(ctx context.Context, input string) (Outcome, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return OutcomeNone, nil
	}

	if !c.busy.CompareAndSwap(false, true) {
		return OutcomeNone, ErrBusy
	}
	defer c.busy.Store(false)

	prompt := text
	if c.opts.SmartQuestionMarks {
		if split := SplitQuestions(text); split != "" {
			prompt = split
		}
	}

	outcome, _ := c.exchange(ctx, prompt, text)
	return outcome, nil
}

// exchange runs one logical send: the first attempt with prompt and, when the
// first attempt hits a transport failure or the placeholder reply, one retry
// with retryText. It appends the user message, any retry notice, and exactly
// one terminal assistant message. The returned error is set only for
// OutcomeFailed.
func (c *Controller) exchange(ctx context.Context, prompt, retryText string) (Outcome, error) {
	c.appendMessage(RoleUser, prompt)

	text := prompt
	for attempt := 1; ; attempt++ {
		c.logger.Debug("sending message", "attempt", attempt, "length", len(text))

		reply, err := c.api.Chat(ctx, c.request(text))
		if err != nil {
			if !chatapi.IsTransport(err) {
				return c.fail(ctx, err)
			}
			if attempt > 1 {
				c.logger.Warn("connection failed after retry", "error", err)
				c.appendMessage(RoleAssistant, MsgConnectionSkipped)
				return OutcomeSkipped, nil
			}
			c.logger.Info("connection failed, retrying", "error", err)
			c.appendMessage(RoleAssistant, NoticeRetryingConnection)
		} else if strings.Contains(reply, chatapi.Placeholder) {
			if attempt > 1 {
				c.logger.Warn("placeholder reply after retry")
				c.appendMessage(RoleAssistant, MsgRephraseSkipped)
				return OutcomeSkipped, nil
			}
			c.logger.Info("placeholder reply, retrying")
			c.appendMessage(RoleAssistant, NoticeRetrying)
		} else {
			c.appendMessage(RoleAssistant, reply)
			return OutcomeReplied, nil
		}

		if err := sleep(ctx, c.opts.RetryDelay, nil); err != nil {
			return c.fail(ctx, err)
		}
		text = retryText
	}
}

// fail shows a non-retryable error as the assistant reply.
func (c *Controller) fail(ctx context.Context, err error) (Outcome, error) {
	var text string
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		text = MsgCanceled
	case c.opts.Online != nil && ctx.Err() == nil && !c.opts.Online(ctx):
		text = MsgOffline
	default:
		text = err.Error()
	}

	c.logger.Warn("message failed", "error", err)
	c.appendMessage(RoleAssistant, text)
	return OutcomeFailed, err
}

func (c *Controller) request(text string) chatapi.Request {
	return chatapi.Request{
		Text:     text,
		ClientID: c.opts.ClientID,
		Language: c.opts.Language,
		Role:     chatapi.RoleUser,
	}
}

func (c *Controller) appendMessage(role Role, text string) {
	c.log.Append(role, text)
	c.broadcaster.Publish()
}

// sleep waits for d, returning early with nil when wake fires and with the
// context error when ctx is done.
func sleep(ctx context.Context, d time.Duration, wake <-chan struct{}) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-wake:
		return nil
	case <-timer.C:
		return nil
	}
}
