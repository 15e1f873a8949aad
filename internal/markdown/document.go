package markdown

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/julien-sobczak/the-lessonwriter/pkg/text"
)

// Document represents a Markdown document (can be a whole lesson, or just a snippet)
type Document string

// Lines returns the lines present in the Markdown document
func (m Document) Lines() []string {
	return strings.Split(string(m), "\n")
}

// Iterator returns an iterator over the lines of the document.
func (m Document) Iterator() *text.LineIterator {
	return text.NewLineIteratorFromText(string(m))
}

func (m Document) String() string {
	return string(m)
}

// TrimSpace removes spaces at the start and end of a markdown document.
func (m Document) TrimSpace() Document {
	return Document(strings.TrimSpace(string(m)))
}

// ToHTML converts the document using the lesson dialect (see MarkdownToHTML).
func (m Document) ToHTML() string {
	return MarkdownToHTML(string(m))
}

// ToCleanMarkdown squashes blank lines and trims the document.
func (m Document) ToCleanMarkdown() Document {
	return m.MustTransform(CollapseNewlines()).TrimSpace()
}

/*
 * Helpers
 */

// IsHeading returns if a given line is a Markdown heading and its level.
func IsHeading(line string) (bool, string, int) {
	match := reHeading.FindStringSubmatch(line)
	if match == nil {
		return false, "", 0
	}
	return true, strings.TrimSpace(match[2]), len(match[1])
}

// Slug determines a slug from a list of values (Markdown emphasis is ignored).
// Ex: Slug("Intro", "**Variables**") => "intro-variables"
func Slug(values ...any) string {
	var parts []string
	for _, value := range values {
		raw := fmt.Sprintf("%s", value)
		raw = string(Document(raw).MustTransform(StripEmphasis()))
		if text.IsBlank(raw) {
			continue
		}
		parts = append(parts, raw)
	}
	return slug.Make(strings.Join(parts, " "))
}
