// ABOUTME: Batch sequencer draining a list of prompts through the send/retry machine
// ABOUTME: One line at a time with a fixed delay, cooperative stop, and a final disposition

package conversation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Disposition is how a batch ended.
type Disposition string

const (
	DispositionCompleted Disposition = "completed"
	DispositionStopped   Disposition = "stopped"
	DispositionError     Disposition = "error"
)

// BatchReport summarizes a finished batch.
type BatchReport struct {
	Disposition Disposition
	// Processed counts non-blank lines whose exchange finished, including
	// lines that were skipped after an exhausted retry.
	Processed int
	Total     int
	// Err is the error that aborted the batch, for DispositionError.
	Err error
}

// Announcement is the assistant message describing the report.
func (r BatchReport) Announcement() string {
	switch r.Disposition {
	case DispositionCompleted:
		return fmt.Sprintf(MsgBatchCompleted, r.Total)
	case DispositionStopped:
		return fmt.Sprintf(MsgBatchStopped, r.Processed, r.Total)
	default:
		return fmt.Sprintf(MsgBatchAborted, r.Processed, r.Total)
	}
}

// batchJob is the transient state of a running batch.
type batchJob struct {
	lines []string
	index int

	stopRequested atomic.Bool
	stopOnce      sync.Once
	stopCh        chan struct{}
}

func newBatchJob(lines []string) *batchJob {
	return &batchJob{
		lines:  lines,
		stopCh: make(chan struct{}),
	}
}

func (j *batchJob) requestStop() {
	j.stopOnce.Do(func() {
		j.stopRequested.Store(true)
		close(j.stopCh)
	})
}

func (j *batchJob) stopped() bool {
	return j.stopRequested.Load()
}

// RunBatch sends lines one at a time without question-mark preprocessing,
// waiting BatchDelay between exchanges. It blocks until the batch ends and
// returns ErrBusy without doing anything if a send or batch is active.
func (c *Controller) RunBatch(ctx context.Context, lines []string) (BatchReport, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return BatchReport{}, ErrBusy
	}
	defer c.busy.Store(false)

	job := newBatchJob(lines)
	c.setBatch(job)
	defer c.setBatch(nil)

	c.logger.Info("batch started", "total", len(lines), "delay", c.opts.BatchDelay)
	c.appendMessage(RoleAssistant, fmt.Sprintf(MsgBatchStarted, len(lines), c.opts.BatchDelay))

	report := c.drain(ctx, job)

	c.logger.Info("batch finished",
		"disposition", report.Disposition,
		"processed", report.Processed,
		"total", report.Total,
	)
	c.appendMessage(RoleAssistant, report.Announcement())

	return report, nil
}

// drain is the sequencer loop. Stop is honoured before each line and after
// each finished exchange; an in-flight request is never interrupted.
func (c *Controller) drain(ctx context.Context, job *batchJob) BatchReport {
	report := BatchReport{Total: len(job.lines)}

	for job.index < len(job.lines) {
		if job.stopped() {
			report.Disposition = DispositionStopped
			return report
		}

		line := strings.TrimSpace(job.lines[job.index])
		job.index++
		if line == "" {
			continue
		}

		outcome, err := c.exchange(ctx, line, line)
		if outcome == OutcomeFailed {
			report.Disposition = DispositionError
			report.Err = err
			return report
		}
		report.Processed++

		if job.stopped() {
			report.Disposition = DispositionStopped
			return report
		}

		if job.index < len(job.lines) {
			if err := sleep(ctx, c.opts.BatchDelay, job.stopCh); err != nil {
				report.Disposition = DispositionError
				report.Err = err
				return report
			}
		}
	}

	report.Disposition = DispositionCompleted
	return report
}

// Stop asks the running batch to end at its next check point. It reports
// whether a batch was running.
func (c *Controller) Stop() bool {
	c.batchMu.Lock()
	defer c.batchMu.Unlock()

	if c.batch == nil {
		return false
	}
	c.batch.requestStop()
	c.logger.Info("batch stop requested")
	return true
}

// BatchRunning reports whether a batch is active.
func (c *Controller) BatchRunning() bool {
	c.batchMu.Lock()
	defer c.batchMu.Unlock()
	return c.batch != nil
}

func (c *Controller) setBatch(job *batchJob) {
	c.batchMu.Lock()
	c.batch = job
	c.batchMu.Unlock()
}

// Upload reads the file at path and runs it as a batch. An unreadable or
// empty file adds a single error message and starts nothing.
func (c *Controller) Upload(ctx context.Context, path string) (BatchReport, error) {
	if c.Busy() {
		return BatchReport{}, ErrBusy
	}

	f, err := os.Open(path)
	if err != nil {
		c.appendMessage(RoleAssistant, fmt.Sprintf(MsgFileUnreadable, err))
		return BatchReport{}, fmt.Errorf("opening batch file: %w", err)
	}
	defer f.Close()

	lines, err := LoadLines(f)
	if err != nil {
		if errors.Is(err, ErrEmptyFile) {
			c.appendMessage(RoleAssistant, MsgFileEmpty)
		} else {
			c.appendMessage(RoleAssistant, fmt.Sprintf(MsgFileUnreadable, err))
		}
		return BatchReport{}, err
	}

	return c.RunBatch(ctx, lines)
}
