// ABOUTME: Terminal projection of the conversation log with colored role prefixes
// ABOUTME: Prints only entries not yet shown; assistant markup is flattened to plain text

package render

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/2389/coven-chat/internal/conversation"
)

var (
	lineBreakTags = regexp.MustCompile(`(?i)<br\s*/?>|</p\s*>|</div\s*>|</li\s*>`)
	anyTag        = regexp.MustCompile(`<[^>]*>`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Terminal writes new log entries to w.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	printed int

	user      *color.Color
	assistant *color.Color
	dim       *color.Color
}

// NewTerminal creates a Terminal renderer. useColor=false disables ANSI codes.
func NewTerminal(w io.Writer, useColor bool) *Terminal {
	t := &Terminal{
		w:         w,
		user:      color.New(color.FgBlue, color.Bold),
		assistant: color.New(color.FgGreen, color.Bold),
		dim:       color.New(color.FgHiBlack),
	}
	if !useColor {
		t.user.DisableColor()
		t.assistant.DisableColor()
		t.dim.DisableColor()
	} else {
		t.user.EnableColor()
		t.assistant.EnableColor()
		t.dim.EnableColor()
	}
	return t
}

// Render prints the entries of msgs that have not been printed yet.
// Calling it again with the same or a longer snapshot is safe.
func (t *Terminal) Render(msgs []conversation.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.printed < len(msgs) {
		if err := t.writeMessage(msgs[t.printed]); err != nil {
			return err
		}
		t.printed++
	}
	return nil
}

// RenderAll prints every entry of msgs regardless of what was printed before.
func (t *Terminal) RenderAll(msgs []conversation.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(msgs) == 0 {
		_, err := fmt.Fprintln(t.w, "No conversation history")
		return err
	}

	fmt.Fprintln(t.w, strings.Repeat("-", 60))
	for _, m := range msgs {
		if err := t.writeMessage(m); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(t.w, strings.Repeat("-", 60))
	return err
}

func (t *Terminal) writeMessage(m conversation.Message) error {
	stamp := t.dim.Sprint(m.Timestamp.Format("15:04:05"))

	var prefix, body string
	if m.Role == conversation.RoleUser {
		prefix = t.user.Sprint("you")
		body = PlainUserText(m.Text)
	} else {
		prefix = t.assistant.Sprint("bot")
		body = PlainAssistantText(m.Text)
	}

	_, err := fmt.Fprintf(t.w, "%s %s %s\n", stamp, prefix, indent(body))
	return err
}

// PlainUserText neutralizes control characters so user text is shown literally.
func PlainUserText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == 0x1b:
			return '^'
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, s)
}

// PlainAssistantText flattens trusted HTML markup into terminal text.
func PlainAssistantText(s string) string {
	s = lineBreakTags.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return PlainUserText(strings.TrimSpace(s))
}

// indent aligns continuation lines under the message body.
func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n             ")
}
