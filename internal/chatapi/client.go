// ABOUTME: HTTP client for the chat backend's POST /api/chat endpoint.
// ABOUTME: Sends one JSON request per call and classifies the response into reply text or typed errors.

package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HeaderClientID carries the client correlation id on every request.
const HeaderClientID = "X-Client-ID"

// RoleUser is the only role the client ever sends.
const RoleUser = "user"

// Request is the JSON body sent to POST /api/chat.
type Request struct {
	Text     string `json:"text"`
	ClientID string `json:"clientId"`
	Language string `json:"language"`
	Role     string `json:"role"`
}

// Client talks to a single chat backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for the backend at baseURL. token is sent as a
// bearer token when non-empty. A nil httpClient uses a client with no timeout;
// a nil logger uses slog.Default.
func NewClient(baseURL, token string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		logger:     logger.With("component", "chatapi"),
	}
}

// Chat sends one message and returns the extracted reply text.
//
// Errors:
//   - *TransportError when the request never produced a response
//   - ErrNetworkUnstable for 502 and 404
//   - *StatusError for any other non-2xx status
//   - ErrEmptyReply when a 2xx payload holds nothing but the correlation id
//   - the context error when ctx is done
func (c *Client) Chat(ctx context.Context, req Request) (string, error) {
	if req.Role == "" {
		req.Role = RoleUser
	}

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := c.baseURL + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderClientID, req.ClientID)
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		c.logger.Debug("chat request failed", "error", err)
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("chat response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed", time.Since(start),
	)

	payload, parsed := decodePayload(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp.StatusCode, payload, raw)
	}

	if !parsed {
		payload = map[string]any{
			"error": "invalid JSON response",
			"raw":   string(raw),
		}
	}
	return ExtractReply(payload)
}

// Online reports whether the backend host accepts TCP connections within timeout.
func (c *Client) Online(ctx context.Context, timeout time.Duration) bool {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return false
	}

	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", host)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// decodePayload parses a response body as JSON. An empty body yields nil and
// parsed=true; an unparseable one yields nil and parsed=false.
func decodePayload(raw []byte) (payload any, parsed bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, true
	}

	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, false
	}
	return payload, true
}

// statusError builds the error for a non-2xx response. Message fields are
// only read from a body that parsed as a JSON object; otherwise the raw body
// is used.
func statusError(code int, payload any, raw []byte) error {
	if code == http.StatusBadGateway || code == http.StatusNotFound {
		return ErrNetworkUnstable
	}

	var parts []string
	if obj, ok := payload.(map[string]any); ok {
		for _, key := range []string{"error", "message", "detail"} {
			if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
	}

	msg := strings.Join(parts, ": ")
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(code)
	}

	return &StatusError{StatusCode: code, Message: msg}
}

// IsTransport reports whether err came from a request that never got a response.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
