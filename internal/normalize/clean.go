package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
	"github.com/julien-sobczak/the-lessonwriter/pkg/text"
)

// Non-breaking spaces frequently found in generated text
const nonBreakingSpaces = "\u00a0\u202f"

var nbspReplacer = strings.NewReplacer("\u00a0", " ", "\u202f", " ")

// Code is left untouched until Finalize
var spaceReplacements = map[string]string{
	"\u00a0": " ",
	"\u202f": " ",
}

// CleanCharacters normalizes line endings, composes Unicode characters (NFC),
// replaces non-breaking spaces, and removes lines containing only emoji.
func CleanCharacters() markdown.Transformer {
	return func(document markdown.Document) (markdown.Document, error) {
		txt := text.NormalizeLineEndings(string(document))
		txt = norm.NFC.String(txt)
		document, err := markdown.ReplaceCharacters(spaceReplacements)(markdown.Document(txt))
		if err != nil {
			return document, err
		}

		var lines []string
		for _, line := range document.Lines() {
			if IsEmojiLine(line) {
				continue
			}
			lines = append(lines, strings.TrimRight(line, " \t"))
		}
		return markdown.Document(strings.Join(lines, "\n")), nil
	}
}

// IsEmoji returns true for pictographs and the characters combining them.
func IsEmoji(r rune) bool {
	switch {
	case r == 0x200D, r == 0xFE0F, r == 0x20E3: // zero width joiner, variation selector, keycap
		return true
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols & dingbats
		return true
	case r >= 0x2300 && r <= 0x23FF: // misc technical (⏱, ⌛...)
		return true
	}
	return unicode.Is(unicode.So, r)
}

// IsEmojiLine returns true for non-blank lines containing only emoji.
func IsEmojiLine(line string) bool {
	found := false
	for _, r := range line {
		if unicode.IsSpace(r) {
			continue
		}
		if !IsEmoji(r) {
			return false
		}
		found = true
	}
	return found
}

// StripEmoji removes emoji from a text.
func StripEmoji(s string) string {
	return strings.Map(func(r rune) rune {
		if IsEmoji(r) {
			return -1
		}
		return r
	}, s)
}

var (
	reLeadingHashes  = regexp.MustCompile(`^\s*#+\s*`)
	reEmphasisMarker = regexp.MustCompile("\\*\\*|__|`")
)

// StripMarkup removes heading markers, emphasis, backticks, and emoji.
func StripMarkup(line string) string {
	line = StripEmoji(line)
	line = reLeadingHashes.ReplaceAllString(line, "")
	line = reEmphasisMarker.ReplaceAllString(line, "")
	line = strings.TrimSpace(line)
	line = strings.Trim(line, "*_")
	return strings.TrimSpace(line)
}

// IsHeadingLine returns true for Markdown headings.
func IsHeadingLine(line string) bool {
	ok, _, _ := markdown.IsHeading(line)
	return ok
}

func containsNonBreakingSpace(s string) bool {
	return strings.ContainsAny(s, nonBreakingSpaces)
}
