// ABOUTME: Scriptable chat backend serving POST /api/chat for local and end-to-end testing
// ABOUTME: Markers in the message text select failure modes; anything else is echoed back

package fakebackend

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/2389/coven-chat/internal/chatapi"
)

// Markers recognised in the request text.
const (
	MarkerEmpty   = "#empty"   // {"text": ""}
	MarkerFlaky   = "#flaky"   // empty on the first attempt, echo afterwards
	MarkerString  = "#string"  // bare JSON string body
	MarkerOpaque  = "#opaque"  // object holding only the client id
	MarkerGarbage = "#garbage" // 200 with a non-JSON body
	MarkerSlow    = "#slow"    // waits SlowDelay before echoing
	Marker404     = "#404"
	Marker500     = "#500"
	Marker502     = "#502"
)

// Handler is an in-process chat backend.
type Handler struct {
	// SlowDelay is how long MarkerSlow requests wait.
	SlowDelay time.Duration

	mu       sync.Mutex
	attempts map[string]int
	logger   *slog.Logger
}

// New creates a Handler. Pass nil logger for default.
func New(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		SlowDelay: 5 * time.Second,
		attempts:  make(map[string]int),
		logger:    logger.With("component", "fakebackend"),
	}
}

// Router returns the HTTP routes with the standard middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the chat endpoint on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.chat)
	})
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatapi.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	clientID := r.Header.Get(chatapi.HeaderClientID)
	if clientID == "" {
		clientID = req.ClientID
	}
	if clientID == "" {
		Error(w, http.StatusBadRequest, "client id is required")
		return
	}

	h.logger.Info("chat request",
		"request_id", chiMiddleware.GetReqID(r.Context()),
		"client_id", clientID,
		"language", req.Language,
		"message_length", len(req.Text),
	)

	text := req.Text
	switch {
	case strings.Contains(text, Marker502):
		Error(w, http.StatusBadGateway, "bad gateway")
	case strings.Contains(text, Marker404):
		Error(w, http.StatusNotFound, "not found")
	case strings.Contains(text, Marker500):
		JSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "internal",
			"message": "backend exploded",
		})
	case strings.Contains(text, MarkerGarbage):
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "<html>definitely not json</html>")
	case strings.Contains(text, MarkerEmpty):
		JSON(w, http.StatusOK, map[string]string{"text": ""})
	case strings.Contains(text, MarkerFlaky):
		if h.attempt(clientID, text) == 1 {
			JSON(w, http.StatusOK, map[string]string{"text": ""})
			return
		}
		h.echo(w, clientID, text)
	case strings.Contains(text, MarkerString):
		JSON(w, http.StatusOK, "echo: "+text)
	case strings.Contains(text, MarkerOpaque):
		JSON(w, http.StatusOK, map[string]string{"clientId": clientID})
	case strings.Contains(text, MarkerSlow):
		select {
		case <-time.After(h.SlowDelay):
			h.echo(w, clientID, text)
		case <-r.Context().Done():
		}
	default:
		h.echo(w, clientID, text)
	}
}

func (h *Handler) echo(w http.ResponseWriter, clientID, text string) {
	JSON(w, http.StatusOK, map[string]string{
		"id":       uuid.New().String(),
		"clientId": clientID,
		"text":     "**echo:** " + text,
	})
}

// attempt counts requests per client and text, starting at 1.
func (h *Handler) attempt(clientID, text string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := clientID + "\x00" + text
	h.attempts[key]++
	return h.attempts[key]
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
