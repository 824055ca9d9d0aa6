// ABOUTME: Anonymous client correlation id, created on first run and reused afterwards.
// ABOUTME: Lets the chat backend associate a sequence of requests with one client.

// Package identity manages the persistent client id.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/coven-chat/internal/store"
)

// ClientIDKey is the store key holding the client id.
const ClientIDKey = "client_id"

const clientIDPrefix = "client_"

// ClientID returns the persisted client id, generating and storing a new one
// when none exists yet.
func ClientID(ctx context.Context, kv store.KV) (string, error) {
	id, err := kv.SetIfAbsent(ctx, ClientIDKey, NewClientID())
	if err != nil {
		return "", fmt.Errorf("loading client id: %w", err)
	}
	return id, nil
}

// NewClientID generates a fresh client id.
func NewClientID() string {
	return clientIDPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}
