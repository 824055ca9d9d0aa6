// ABOUTME: Drives renderers from conversation change signals
// ABOUTME: Each wake-up re-reads the full snapshot so coalesced signals lose nothing

package render

import (
	"context"
	"log/slog"

	"github.com/2389/coven-chat/internal/conversation"
)

// Renderer projects a log snapshot. Render must be idempotent.
type Renderer interface {
	Render(msgs []conversation.Message) error
}

// Source provides log snapshots.
type Source interface {
	Messages() []conversation.Message
}

// Follow renders src into every renderer each time updates fires, until
// updates is closed or ctx is done. A final pass runs before returning.
func Follow(ctx context.Context, updates <-chan struct{}, src Source, logger *slog.Logger, renderers ...Renderer) {
	if logger == nil {
		logger = slog.Default()
	}

	renderAll := func() {
		msgs := src.Messages()
		for _, r := range renderers {
			if err := r.Render(msgs); err != nil {
				logger.Error("render failed", "error", err)
			}
		}
	}

	defer renderAll()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			renderAll()
		}
	}
}
