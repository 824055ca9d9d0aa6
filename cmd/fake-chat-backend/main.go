// ABOUTME: Minimal fake chat backend for manual and E2E testing of coven-chat.
// ABOUTME: Usage: fake-chat-backend [-addr :8080] [-slow 5s]; see internal/fakebackend for markers.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2389/coven-chat/internal/fakebackend"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	slow := flag.Duration("slow", 5*time.Second, "Delay applied to #slow messages")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(*addr, *slow, logger); err != nil {
		logger.Error("fake backend failed", "error", err)
		os.Exit(1)
	}
}

func run(addr string, slow time.Duration, logger *slog.Logger) error {
	h := fakebackend.New(logger)
	h.SlowDelay = slow

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fake chat backend listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
