// Package conversation implements the chat session state machine.
//
// # Overview
//
// A Controller owns one append-only Log of user and assistant messages and
// is the only writer to it. Renderers never hold their own copy of the
// conversation; they subscribe for change signals and re-read Messages().
//
//	ctrl := conversation.NewController(api, opts, logger)
//	updates := ctrl.Subscribe(ctx)
//	outcome, err := ctrl.Send(ctx, "what is a coven?")
//
// # Single Flight
//
// At most one request is in flight per Controller. Send, RunBatch and
// Upload return ErrBusy instead of queueing when another exchange or a
// batch is active.
//
// # Exchanges
//
// One exchange is one user message plus exactly one terminal assistant
// message. An exchange tries the request at most twice:
//
//   - reply containing the placeholder: "retrying" notice, then one retry
//   - transport failure: "connection failed" notice, then one retry
//   - any other error: reported immediately, never retried
//
// A second placeholder or transport failure ends the exchange as Skipped.
// The retry always resends the original trimmed input.
//
// # Batches
//
// RunBatch walks a list of lines one exchange at a time, waiting BatchDelay
// between them. Blank lines cost neither a request nor a delay. Stop is
// honoured before each line and after each finished exchange, and wakes a
// pending delay; an in-flight request is never interrupted. Skipped lines
// still count as processed; a Failed exchange aborts the batch.
//
// # Change Signals
//
// ChangeBroadcaster coalesces signals into one-slot channels. A subscriber
// that falls behind sees a single wake-up and catches up from the snapshot.
package conversation
