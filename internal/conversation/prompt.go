// ABOUTME: Question-mark preprocessing applied to user-typed prompts
// ABOUTME: Drops trailing question marks and splits on internal ones, ASCII and full-width

package conversation

import "strings"

const questionMarks = "?？"

var questionMarkReplacer = strings.NewReplacer("?", "\n", "？", "\n")

// SplitQuestions removes trailing question marks, turns the remaining ones
// into line breaks and drops the blank lines that produces.
//
//	"a?b?c?"  -> "a\nb\nc"
//	"test??"  -> "test"
func SplitQuestions(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, questionMarks)
	s = questionMarkReplacer.Replace(s)

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
