// ABOUTME: Terminal chat client for a coven chat backend's HTTP API.
// ABOUTME: Line input, single-flight sends with one retry, and line-by-line batch upload with /stop.

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/coven-chat/internal/chatapi"
	"github.com/2389/coven-chat/internal/config"
	"github.com/2389/coven-chat/internal/conversation"
	"github.com/2389/coven-chat/internal/identity"
	"github.com/2389/coven-chat/internal/render"
	"github.com/2389/coven-chat/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const banner = `
  ___ _____   _____ _ __         ___| |__   __ _| |_
 / __/ _ \ \ / / _ \ '_ \ _____ / __| '_ \ / _' | __|
| (_| (_) \ V /  __/ | | |_____| (__| | | | (_| | |_
 \___\___/ \_/ \___|_| |_|      \___|_| |_|\__,_|\__|
`

// onlineProbeTimeout bounds the connectivity check used for offline messages.
const onlineProbeTimeout = 2 * time.Second

// getConfigPath returns the path to the client config file.
// Priority: -config flag > COVEN_CHAT_CONFIG env var > XDG_CONFIG_HOME/coven-chat/config.{yaml,toml}
func getConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if envPath := os.Getenv("COVEN_CHAT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	yamlPath := filepath.Join(configDir, "coven-chat", "config.yaml")
	tomlPath := filepath.Join(configDir, "coven-chat", "config.toml")
	if _, err := os.Stat(yamlPath); os.IsNotExist(err) {
		if _, err := os.Stat(tomlPath); err == nil {
			return tomlPath
		}
	}
	return yamlPath
}

// getDataPath returns the default path of the client identity database.
// Priority: XDG_DATA_HOME/coven-chat > ~/.local/share/coven-chat
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join("data", "client.db")
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "coven-chat", "client.db")
}

type flags struct {
	configPath string
	server     string
	batchFile  string
	transcript string
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Config file path (YAML or TOML)")
	flag.StringVar(&f.server, "server", "", "Chat backend URL (overrides server.base_url)")
	flag.StringVar(&f.batchFile, "batch", "", "Send every line of this file, then exit")
	flag.StringVar(&f.transcript, "transcript", "", "Write an HTML transcript to this path")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: reading .env: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, f, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags, in io.Reader, out io.Writer) error {
	cfg, err := config.LoadOrDefault(getConfigPath(f.configPath))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if f.server != "" {
		cfg.Server.BaseURL = f.server
	}
	if f.transcript != "" {
		cfg.Render.TranscriptPath = f.transcript
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := setupLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	dataPath := cfg.Data.Path
	if dataPath == "" {
		dataPath = getDataPath()
	}
	kv, err := store.NewSQLiteStore(dataPath)
	if err != nil {
		return fmt.Errorf("opening client store: %w", err)
	}
	defer kv.Close()

	clientID, err := identity.ClientID(ctx, kv)
	if err != nil {
		return err
	}

	api := chatapi.NewClient(cfg.Server.BaseURL, cfg.Server.Token, &http.Client{Timeout: cfg.Server.Timeout}, logger)
	ctrl := conversation.NewController(api, conversation.Options{
		ClientID:           clientID,
		Language:           cfg.Chat.Language,
		SmartQuestionMarks: cfg.Chat.SmartQuestionMarks,
		RetryDelay:         cfg.Chat.RetryDelay,
		BatchDelay:         cfg.Chat.BatchDelay,
		Online: func(ctx context.Context) bool {
			return api.Online(ctx, onlineProbeTimeout)
		},
	}, logger)
	defer ctrl.Close()

	term := render.NewTerminal(out, cfg.Render.Color && !color.NoColor)
	renderers := []render.Renderer{term}
	if cfg.Render.TranscriptPath != "" {
		renderers = append(renderers, render.NewTranscript(cfg.Render.TranscriptPath, "coven-chat", logger))
	}

	// Rendering outlives ctx so the final messages are still shown after Ctrl+C
	followCtx, stopFollow := context.WithCancel(context.Background())
	followDone := make(chan struct{})
	go func() {
		defer close(followDone)
		render.Follow(followCtx, ctrl.Subscribe(followCtx), ctrl, logger, renderers...)
	}()
	defer func() {
		stopFollow()
		<-followDone
	}()

	logger.Info("client ready", "server", cfg.Server.BaseURL, "client_id", clientID)

	if f.batchFile != "" {
		report, err := ctrl.Upload(ctx, f.batchFile)
		if err != nil {
			return fmt.Errorf("batch upload: %w", err)
		}
		if report.Disposition == conversation.DispositionError {
			return fmt.Errorf("batch aborted: %w", report.Err)
		}
		return nil
	}

	printIntro(out, cfg.Server.BaseURL, clientID)
	return interactive(ctx, ctrl, term, in, out)
}

func printIntro(out io.Writer, server, clientID string) {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	cyan.Fprint(out, banner)
	gray.Fprintf(out, "    version: %s\n\n", version)
	fmt.Fprintf(out, "coven-chat connected to %s\n", server)
	gray.Fprintf(out, "Client ID: %s\n", clientID)
	fmt.Fprintln(out, "Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Fprintln(out)
}

// interactive reads commands and messages until EOF, /quit, or ctx is done.
func interactive(ctx context.Context, ctrl *conversation.Controller, term *render.Terminal, in io.Reader, out io.Writer) error {
	yellow := color.New(color.FgYellow)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- io.EOF
	}()

	var batches sync.WaitGroup
	defer func() {
		ctrl.Stop()
		batches.Wait()
	}()

	for {
		if ctrl.BatchRunning() {
			fmt.Fprint(out, "[batch]> ")
		} else {
			fmt.Fprint(out, "> ")
		}

		var line string
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err == io.EOF {
				// Let a running batch finish when input is piped
				batches.Wait()
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case line = <-lines:
		}

		input := strings.TrimSpace(line)
		switch {
		case input == "":
			continue

		case input == "/quit" || input == "/exit" || input == "/q":
			return nil

		case input == "/help":
			printHelp(out)

		case input == "/history":
			if err := term.RenderAll(ctrl.Messages()); err != nil {
				return fmt.Errorf("rendering history: %w", err)
			}

		case input == "/stop":
			if !ctrl.Stop() {
				yellow.Fprintln(out, "No batch is running")
			}

		case strings.HasPrefix(input, "/upload"):
			path := strings.TrimSpace(strings.TrimPrefix(input, "/upload"))
			if path == "" {
				yellow.Fprintln(out, "Usage: /upload <file>")
				continue
			}
			if ctrl.Busy() {
				yellow.Fprintln(out, "A batch is already running. Use /stop first.")
				continue
			}
			batches.Add(1)
			go func() {
				defer batches.Done()
				if _, err := ctrl.Upload(ctx, path); errors.Is(err, conversation.ErrBusy) {
					yellow.Fprintln(out, "Busy, try again in a moment.")
				}
			}()

		default:
			if _, err := ctrl.Send(ctx, line); errors.Is(err, conversation.ErrBusy) {
				yellow.Fprintln(out, "A batch is running. Use /stop to cancel it first.")
				continue
			}
			if err := term.Render(ctrl.Messages()); err != nil {
				return fmt.Errorf("rendering: %w", err)
			}
		}
	}
}

// printHelp displays available commands.
func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  /upload <file>  Send each non-blank line of a text file")
	fmt.Fprintln(out, "  /stop           Stop the running batch after the current message")
	fmt.Fprintln(out, "  /history        Show the whole conversation")
	fmt.Fprintln(out, "  /help           Show this help")
	fmt.Fprintln(out, "  /quit           Exit")
}
