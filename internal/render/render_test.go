// ABOUTME: Tests for terminal and HTML transcript renderers and the follow loop
// ABOUTME: Validates escaping rules, idempotent projection, and final render on shutdown

package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-chat/internal/conversation"
)

func msg(id string, role conversation.Role, text string) conversation.Message {
	return conversation.Message{
		ID:        id,
		Role:      role,
		Text:      text,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestTerminal_PrintsOnlyNewEntries(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)

	first := []conversation.Message{msg("1", conversation.RoleUser, "hello")}
	require.NoError(t, term.Render(first))
	require.NoError(t, term.Render(first))

	both := append(first, msg("2", conversation.RoleAssistant, "<p>hi <b>there</b></p>"))
	require.NoError(t, term.Render(both))

	assert.Equal(t,
		"03:04:05 you hello\n"+
			"03:04:05 bot hi there\n",
		buf.String())
}

func TestTerminal_RenderAll(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)

	require.NoError(t, term.RenderAll(nil))
	assert.Contains(t, buf.String(), "No conversation history")

	buf.Reset()
	msgs := []conversation.Message{
		msg("1", conversation.RoleUser, "a"),
		msg("2", conversation.RoleAssistant, "b"),
	}
	require.NoError(t, term.Render(msgs))
	require.NoError(t, term.RenderAll(msgs))

	assert.Equal(t, 2, strings.Count(buf.String(), "you a"))
}

func TestTerminal_MultilineIndent(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)

	require.NoError(t, term.Render([]conversation.Message{msg("1", conversation.RoleUser, "a\nb")}))

	assert.Equal(t, "03:04:05 you a\n             b\n", buf.String())
}

func TestPlainUserText(t *testing.T) {
	assert.Equal(t, "^[31mred", PlainUserText("\x1b[31mred"))
	assert.Equal(t, "tab\tand\nnewline", PlainUserText("tab\tand\nnewline"))
	assert.Equal(t, "<b>kept</b>", PlainUserText("<b>kept</b>"))
	assert.Equal(t, "bell", PlainUserText("be\x07ll"))
}

func TestPlainAssistantText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"line<br>break<br/>again", "line\nbreak\nagain"},
		{"<p>one</p><p>two</p>", "one\ntwo"},
		{"a &amp; b &lt;c&gt;", "a & b <c>"},
		{"<ul><li>x</li><li>y</li></ul>", "x\ny"},
		{"<p>a</p>\n\n\n\n<p>b</p>", "a\n\nb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PlainAssistantText(tt.in), "input %q", tt.in)
	}
}

func TestUserHTML(t *testing.T) {
	assert.Equal(t, "&lt;script&gt;x&lt;/script&gt;<br>next", string(UserHTML("<script>x</script>\nnext")))
	assert.Equal(t, "a<br>b", string(UserHTML("a\r\nb")))
}

func TestTranscript_Render(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "transcript.html")
	tr := NewTranscript(path, "coven-chat", nil)

	msgs := []conversation.Message{
		msg("u1", conversation.RoleUser, "<b>not bold</b>\nsecond line"),
		msg("a1", conversation.RoleAssistant, "<b>bold</b> and **markdown**"),
	}
	require.NoError(t, tr.Render(msgs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(data)

	assert.Contains(t, page, "<title>coven-chat</title>")
	assert.Contains(t, page, "&lt;b&gt;not bold&lt;/b&gt;<br>second line")
	assert.Contains(t, page, "<b>bold</b> and <strong>markdown</strong>")
	assert.Contains(t, page, `class="msg user" id="m-u1"`)
	assert.Contains(t, page, `class="msg assistant" id="m-a1"`)
	assert.Contains(t, page, "scrollTo")

	// Re-rendering a longer log replaces the file
	msgs = append(msgs, msg("a2", conversation.RoleAssistant, "later"))
	require.NoError(t, tr.Render(msgs))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), `id="m-u1"`))
	assert.Contains(t, string(data), `id="m-a2"`)
}

type staticSource struct {
	mu   sync.Mutex
	msgs []conversation.Message
}

func (s *staticSource) Messages() []conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]conversation.Message(nil), s.msgs...)
}

func (s *staticSource) add(m conversation.Message) {
	s.mu.Lock()
	s.msgs = append(s.msgs, m)
	s.mu.Unlock()
}

type recordingRenderer struct {
	mu    sync.Mutex
	calls []int
}

func (r *recordingRenderer) Render(msgs []conversation.Message) error {
	r.mu.Lock()
	r.calls = append(r.calls, len(msgs))
	r.mu.Unlock()
	return nil
}

func (r *recordingRenderer) last() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return -1
	}
	return r.calls[len(r.calls)-1]
}

func TestFollow_RendersOnSignalAndOnExit(t *testing.T) {
	src := &staticSource{}
	rec := &recordingRenderer{}
	updates := make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		Follow(context.Background(), updates, src, nil, rec)
		close(done)
	}()

	src.add(msg("1", conversation.RoleUser, "x"))
	updates <- struct{}{}
	require.Eventually(t, func() bool { return rec.last() == 1 }, time.Second, time.Millisecond)

	src.add(msg("2", conversation.RoleAssistant, "y"))
	close(updates)
	<-done

	assert.Equal(t, 2, rec.last(), "final pass should pick up the last append")
}

func TestFollow_StopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recordingRenderer{}

	done := make(chan struct{})
	go func() {
		Follow(ctx, make(chan struct{}), &staticSource{}, nil, rec)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after cancel")
	}
	assert.Equal(t, 0, rec.last())
}
