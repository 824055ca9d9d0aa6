// ABOUTME: Fixed assistant-side texts shown for retries, skips, batches and failures
// ABOUTME: Kept together so renderers and tests agree on the exact wording

package conversation

import "errors"

const (
	NoticeRetrying           = "The answer was empty, retrying..."
	NoticeRetryingConnection = "Connection failed, retrying..."

	MsgRephraseSkipped   = "Sorry, this question could not be processed (retried once), skipping."
	MsgConnectionSkipped = "Connection failed (retried once), skipping."
	MsgOffline           = "You appear to be offline. Check your network connection and try again."
	MsgCanceled          = "Request canceled."

	MsgBatchStarted   = "Batch started: %d messages, one every %s. Use /stop to cancel."
	MsgBatchCompleted = "Batch completed: %d messages processed."
	MsgBatchStopped   = "Batch stopped by user: processed %d of %d."
	MsgBatchAborted   = "Batch aborted after an error: processed %d of %d."

	MsgFileEmpty      = "The file is empty or has no usable lines."
	MsgFileUnreadable = "Could not read file: %v"
)

var (
	// ErrBusy is returned when a send or batch starts while another is active.
	ErrBusy = errors.New("another message is still being processed")

	// ErrEmptyFile is returned for an upload without any non-blank line.
	ErrEmptyFile = errors.New("file has no non-blank lines")
)
