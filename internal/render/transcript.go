// ABOUTME: HTML transcript projection of the conversation log
// ABOUTME: Rewrites the whole page on every change; user text escaped, assistant text trusted

package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/2389/coven-chat/internal/conversation"
)

var transcriptTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 0 auto; padding: 1rem; }
.msg { margin: .5rem 0; padding: .5rem .75rem; border-radius: .5rem; }
.user { background: #e8f0fe; margin-left: 4rem; }
.assistant { background: #f1f3f4; margin-right: 4rem; }
.time { color: #888; font-size: .75rem; }
</style>
</head>
<body>
<div id="messages">
{{- range .Messages}}
<div class="msg {{.Role}}" id="m-{{.ID}}"><div class="time">{{.Time}}</div>{{.Body}}</div>
{{- end}}
</div>
<script>window.scrollTo(0, document.body.scrollHeight);</script>
</body>
</html>
`))

type transcriptEntry struct {
	ID   string
	Role string
	Time string
	Body template.HTML
}

// Transcript writes the conversation as a standalone HTML page.
type Transcript struct {
	mu     sync.Mutex
	path   string
	title  string
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewTranscript creates a Transcript renderer writing to path. Pass nil logger for default.
func NewTranscript(path, title string, logger *slog.Logger) *Transcript {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcript{
		path:  path,
		title: title,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				gmhtml.WithHardWraps(),
				gmhtml.WithUnsafe(),
			),
		),
		logger: logger.With("component", "transcript"),
	}
}

// Render rewrites the transcript file from msgs.
func (t *Transcript) Render(msgs []conversation.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make([]transcriptEntry, 0, len(msgs))
	for _, m := range msgs {
		body, err := t.body(m)
		if err != nil {
			return err
		}
		entries = append(entries, transcriptEntry{
			ID:   m.ID,
			Role: string(m.Role),
			Time: m.Timestamp.Format("2006-01-02 15:04:05"),
			Body: body,
		})
	}

	var buf bytes.Buffer
	data := struct {
		Title    string
		Messages []transcriptEntry
	}{t.title, entries}
	if err := transcriptTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering transcript: %w", err)
	}

	if err := writeFileAtomic(t.path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}

	t.logger.Debug("transcript written", "path", t.path, "messages", len(msgs))
	return nil
}

func (t *Transcript) body(m conversation.Message) (template.HTML, error) {
	if m.Role == conversation.RoleUser {
		return UserHTML(m.Text), nil
	}

	var buf bytes.Buffer
	if err := t.md.Convert([]byte(m.Text), &buf); err != nil {
		return "", fmt.Errorf("converting assistant markup: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// UserHTML escapes user text and turns line breaks into <br>.
func UserHTML(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// writeFileAtomic replaces path with data via a temp file and rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".transcript-*.html")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
