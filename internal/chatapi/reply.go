// ABOUTME: Reply text extraction from decoded chat responses.
// ABOUTME: Handles bare strings, text/message objects, correlation-only objects, and opaque payloads.

package chatapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Placeholder is shown whenever no meaningful answer can be extracted.
const Placeholder = "Sorry, I didn't catch that. Please rephrase your question."

// replyFields are checked in order for the reply text.
var replyFields = []string{"text", "message"}

// correlationFields may accompany an otherwise empty reply object.
var correlationFields = map[string]bool{
	"clientId":  true,
	"client_id": true,
}

// ExtractReply turns a decoded response payload into the text to display.
func ExtractReply(payload any) (string, error) {
	switch v := payload.(type) {
	case nil:
		return Placeholder, nil

	case string:
		return orPlaceholder(strings.TrimSpace(v)), nil

	case map[string]any:
		present := false
		for _, field := range replyFields {
			val, ok := v[field]
			if !ok {
				continue
			}
			present = true
			if text := fieldText(val); strings.TrimSpace(text) != "" {
				return text, nil
			}
		}
		if present {
			return Placeholder, nil
		}

		onlyCorrelation := true
		for key := range v {
			if !correlationFields[key] {
				onlyCorrelation = false
				break
			}
		}
		if onlyCorrelation {
			return "", ErrEmptyReply
		}

		return orPlaceholder(serialize(v)), nil

	default:
		return orPlaceholder(serialize(v)), nil
	}
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// fieldText renders a reply field value. null becomes empty so the caller
// substitutes the placeholder.
func fieldText(val any) string {
	switch t := val.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return serialize(t)
	}
}

// serialize renders a payload as compact JSON without HTML escaping.
func serialize(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(buf.String())
}
