// ABOUTME: Splits an uploaded text file into batch prompts
// ABOUTME: One prompt per non-blank line, CRLF tolerant

package conversation

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineBytes bounds a single prompt line read from a file.
const maxLineBytes = 1 << 20

// LoadLines reads r and returns its trimmed, non-blank lines in order.
// It returns ErrEmptyFile when no usable line remains.
func LoadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lines: %w", err)
	}

	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}
	return lines, nil
}
