// ABOUTME: Message type and the append-only conversation log
// ABOUTME: The log is the single source of truth that renderers project from

package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable entry in the conversation.
type Message struct {
	ID        string
	Role      Role
	Text      string
	Timestamp time.Time
}

// Log is an ordered, append-only list of messages. Entries are never edited,
// reordered or removed.
type Log struct {
	mu       sync.RWMutex
	messages []Message
}

// Append adds a new message and returns it.
func (l *Log) Append(role Role, text string) Message {
	msg := Message{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}

	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()

	return msg
}

// Snapshot returns a copy of all messages in order.
func (l *Log) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}
