// ABOUTME: Tests for the chat API client against httptest servers.
// ABOUTME: Covers request shape, headers, status classification, and transport failures.

package chatapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "", srv.Client(), nil)
}

func testRequest(text string) Request {
	return Request{Text: text, ClientID: "client_abc", Language: "en"}
}

func TestChat_RequestShape(t *testing.T) {
	var got Request
	var gotHeader, gotAuth, gotPath, gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotHeader = r.Header.Get(HeaderClientID)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hi there"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok-123", srv.Client(), nil)
	reply, err := client.Chat(context.Background(), testRequest("hello"))

	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/chat", gotPath)
	assert.Equal(t, "client_abc", gotHeader)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, Request{Text: "hello", ClientID: "client_abc", Language: "en", Role: "user"}, got)
}

func TestChat_NoTokenNoAuthHeader(t *testing.T) {
	var hadAuth bool
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(`"ok"`))
	})

	reply, err := client.Chat(context.Background(), testRequest("x"))
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.False(t, hadAuth)
}

func TestChat_MessageField(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Hello"}`))
	})

	reply, err := client.Chat(context.Background(), testRequest("x"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)
}

func TestChat_EmptyTextIsPlaceholder(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":""}`))
	})

	reply, err := client.Chat(context.Background(), testRequest("x"))
	require.NoError(t, err)
	assert.Equal(t, Placeholder, reply)
}

func TestChat_EmptyBodyIsPlaceholder(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	reply, err := client.Chat(context.Background(), testRequest("x"))
	require.NoError(t, err)
	assert.Equal(t, Placeholder, reply)
}

func TestChat_InvalidJSONBecomesDiagnostic(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<b>not json</b>`))
	})

	reply, err := client.Chat(context.Background(), testRequest("x"))
	require.NoError(t, err)
	assert.Equal(t, `{"error":"invalid JSON response","raw":"<b>not json</b>"}`, reply)
}

func TestChat_CorrelationOnlyObject(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"clientId":"client_abc"}`))
	})

	_, err := client.Chat(context.Background(), testRequest("x"))
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestChat_NetworkUnstableStatuses(t *testing.T) {
	for _, code := range []int{http.StatusBadGateway, http.StatusNotFound} {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"error":"upstream"}`))
		})

		_, err := client.Chat(context.Background(), testRequest("x"))
		assert.ErrorIs(t, err, ErrNetworkUnstable, "status %d", code)
		assert.False(t, IsTransport(err))
	}
}

func TestChat_StatusErrorUsesMessageFields(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal","message":"model overloaded"}`))
	})

	_, err := client.Chat(context.Background(), testRequest("x"))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "internal: model overloaded", se.Message)
	assert.Equal(t, "server error (500): internal: model overloaded", err.Error())
}

func TestChat_StatusErrorFallsBackToRawBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down\n"))
	})

	_, err := client.Chat(context.Background(), testRequest("x"))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "slow down", se.Message)
}

func TestChat_StatusErrorKeepsNonJSONBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream model crashed"))
	})

	_, err := client.Chat(context.Background(), testRequest("x"))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "upstream model crashed", se.Message)
	assert.NotContains(t, err.Error(), "invalid JSON response")
}

func TestChat_StatusErrorJSONWithoutMessageFields(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":17}`))
	})

	_, err := client.Chat(context.Background(), testRequest("x"))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, `{"code":17}`, se.Message)
}

func TestChat_StatusErrorFallsBackToStatusText(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Chat(context.Background(), testRequest("x"))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Service Unavailable", se.Message)
}

func TestChat_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, "", nil, nil)
	_, err := client.Chat(context.Background(), testRequest("x"))

	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "failed to fetch")
}

func TestChat_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		// Disconnects are only noticed once the body has been consumed
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	// Runs before the server's Close cleanup
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, testRequest("x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsTransport(err))
}

func TestOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(srv.URL, "", nil, nil)
	assert.True(t, client.Online(context.Background(), time.Second))

	srv.Close()
	assert.False(t, client.Online(context.Background(), 200*time.Millisecond))
}
