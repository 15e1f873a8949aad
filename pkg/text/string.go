package text

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
	"unicode"
)

var reExcessNewlines = regexp.MustCompile(`\n{3,}`)

// SquashBlankLines replaces successive blank lines by a single empty one.
func SquashBlankLines(text string) string {
	var result bytes.Buffer
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	previousLineEmpty := false
	for scanner.Scan() {
		line := scanner.Text()
		if IsBlank(line) {
			if previousLineEmpty {
				continue
			}
			previousLineEmpty = true
			line = ""
		} else {
			previousLineEmpty = false
		}
		result.WriteString(line)
		result.WriteRune('\n')
	}

	return result.String()
}

// CollapseNewlines replaces every run of 3 or more newlines by exactly 2.
func CollapseNewlines(text string) string {
	return reExcessNewlines.ReplaceAllString(text, "\n\n")
}

// NormalizeLineEndings converts CRLF and CR line endings to LF.
func NormalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// IsBlank returns if a text is blank.
func IsBlank(text string) bool {
	return len(strings.TrimSpace(text)) == 0
}

// PrefixLines adds a prefix to every line.
func PrefixLines(text string, prefix string) string {
	var res bytes.Buffer
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		res.WriteString(prefix)
		res.WriteString(line)
		res.WriteString("\n")
	}
	return res.String()
}

// TrimLinePrefix removes a prefix from every line when present.
func TrimLinePrefix(text string, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}

// IsWordRune returns if a rune can be part of a word.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
